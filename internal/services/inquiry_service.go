package services

import (
	"context"
	"errors"

	"github.com/Gupta12p/HouseListing/internal/domain"
	applog "github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/notify"
	"github.com/Gupta12p/HouseListing/internal/repos"
	"github.com/Gupta12p/HouseListing/internal/validate"
)

type InquiryService struct {
	Inquiries *repos.InquiryRepo
	Listings  *repos.ListingRepo
	Notifier  notify.Notifier
}

func NewInquiryService(inq *repos.InquiryRepo, listings *repos.ListingRepo, n notify.Notifier) *InquiryService {
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &InquiryService{Inquiries: inq, Listings: listings, Notifier: n}
}

// Create records u's inquiry on a listing. When u already contacted that
// listing the stored inquiry comes back with created=false and nothing is
// written or sent. Notification failures are logged only.
func (s *InquiryService) Create(ctx context.Context, u *domain.User, listingID int64, message string) (domain.Inquiry, bool, error) {
	if u == nil {
		return domain.Inquiry{}, false, ErrUnauthenticated
	}
	l, err := s.Listings.Get(listingID)
	if errors.Is(err, repos.ErrNotFound) {
		return domain.Inquiry{}, false, ErrNotFound
	}
	if err != nil {
		return domain.Inquiry{}, false, err
	}
	msg, ok := validate.Message(message)
	if !ok {
		return domain.Inquiry{}, false, invalid("message", "must be 1-2000 characters")
	}

	q, created, err := s.Inquiries.CreateIfAbsent(domain.Inquiry{UserID: u.ID, ListingID: l.ID, Message: msg})
	if err != nil || !created {
		return q, false, err
	}

	if err := s.Notifier.Notify(ctx, notify.NewInquiryEvent(l, q, *u)); err != nil {
		applog.Error(nil, "notify.inquiry.fail", errors.Join(ErrNotification, err), map[string]any{
			"listing_id": l.ID,
			"inquiry_id": q.ID,
		})
	}
	return q, true, nil
}

// ListForUser returns u's inquiries, newest first.
func (s *InquiryService) ListForUser(u *domain.User) ([]domain.InquiryView, error) {
	if u == nil {
		return nil, ErrUnauthenticated
	}
	return s.Inquiries.ListByUser(u.ID)
}

func (s *InquiryService) HasContacted(u *domain.User, listingID int64) (bool, error) {
	if u == nil {
		return false, nil
	}
	return s.Inquiries.Exists(u.ID, listingID)
}
