package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	applog "github.com/Gupta12p/HouseListing/internal/log"
)

const (
	TypeInquiryNotify = "inquiry:notify"
	queueName         = "notifications"
)

// ConnectRedis opens a client and pings it.
func ConnectRedis(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	o := rdb.Options()
	return asynq.RedisClientOpt{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

// NewInquiryTask encodes ev as an asynq task.
func NewInquiryTask(ev InquiryEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode inquiry event: %w", err)
	}
	return asynq.NewTask(TypeInquiryNotify, payload, asynq.MaxRetry(5), asynq.Queue(queueName)), nil
}

// Queue is a Notifier that enqueues events for a Worker.
type Queue struct {
	client *asynq.Client
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{client: asynq.NewClient(redisOpt(rdb))}
}

func (q *Queue) Notify(ctx context.Context, ev InquiryEvent) error {
	task, err := NewInquiryTask(ev)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeInquiryNotify, err)
	}
	applog.Info(nil, "notify.inquiry.enqueued", map[string]any{"task_id": info.ID, "inquiry_id": ev.Inquiry.ID})
	return nil
}

func (q *Queue) Close() error { return q.client.Close() }

// Worker consumes queued inquiry events and delivers them through next.
type Worker struct {
	srv  *asynq.Server
	next Notifier
}

func NewWorker(rdb *redis.Client, next Notifier, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(redisOpt(rdb), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueName: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			applog.Error(nil, "notify.worker.fail", err, map[string]any{"type": task.Type()})
		}),
	})
	return &Worker{srv: srv, next: next}
}

// Handle delivers one task. Undecodable payloads are not retried.
func (w *Worker) Handle(ctx context.Context, t *asynq.Task) error {
	var ev InquiryEvent
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return fmt.Errorf("decode inquiry event: %v: %w", err, asynq.SkipRetry)
	}
	return w.next.Notify(ctx, ev)
}

func (w *Worker) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInquiryNotify, w.Handle)
	return mux
}

// Start processes tasks in the background until Shutdown.
func (w *Worker) Start() error { return w.srv.Start(w.mux()) }

// Run processes tasks until the process receives a termination signal.
func (w *Worker) Run() error { return w.srv.Run(w.mux()) }

func (w *Worker) Shutdown() { w.srv.Shutdown() }
