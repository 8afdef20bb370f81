package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	applog "github.com/Gupta12p/HouseListing/internal/log"
)

var ErrClosed = errors.New("notify: dispatcher closed")

// Async hands each event to next on its own goroutine, detached from the
// request that produced it. Failures are logged and never returned.
type Async struct {
	next    Notifier
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Async{next: next, timeout: timeout}
}

func (a *Async) Notify(_ context.Context, ev InquiryEvent) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Notify(ctx, ev); err != nil {
			applog.Error(nil, "notify.inquiry.fail", err, map[string]any{
				"listing_id": ev.Listing.ID,
				"inquiry_id": ev.Inquiry.ID,
			})
			return
		}
		applog.Info(nil, "notify.inquiry.sent", map[string]any{"inquiry_id": ev.Inquiry.ID})
	}()
	return nil
}

// Close stops accepting events and waits for in-flight deliveries.
func (a *Async) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}
