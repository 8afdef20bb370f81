package notify

import (
	"context"

	"github.com/Gupta12p/HouseListing/internal/domain"
	applog "github.com/Gupta12p/HouseListing/internal/log"
)

// Contact is the inquiring user as carried in an event; it never includes the
// password hash.
type Contact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InquiryEvent is emitted once per newly stored inquiry.
type InquiryEvent struct {
	Listing domain.Listing `json:"listing"`
	Inquiry domain.Inquiry `json:"inquiry"`
	User    Contact        `json:"user"`
}

func NewInquiryEvent(l domain.Listing, q domain.Inquiry, u domain.User) InquiryEvent {
	return InquiryEvent{Listing: l, Inquiry: q, User: Contact{ID: u.ID, Name: u.Name, Email: u.Email}}
}

// Notifier delivers inquiry events to the site operator.
type Notifier interface {
	Notify(ctx context.Context, ev InquiryEvent) error
}

type NotifierFunc func(ctx context.Context, ev InquiryEvent) error

func (f NotifierFunc) Notify(ctx context.Context, ev InquiryEvent) error { return f(ctx, ev) }

// LogNotifier writes events to the application log. Used when no mail
// transport is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, ev InquiryEvent) error {
	applog.Info(nil, "notify.inquiry.logged", map[string]any{
		"listing_id": ev.Listing.ID,
		"listing":    ev.Listing.Title,
		"inquiry_id": ev.Inquiry.ID,
		"user_email": ev.User.Email,
		"message":    ev.Inquiry.Message,
	})
	return nil
}
