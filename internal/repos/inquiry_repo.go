package repos

import (
	stderrors "errors"

	"github.com/Gupta12p/HouseListing/internal/domain"

	"github.com/jmoiron/sqlx"
)

type InquiryRepo struct{ db *sqlx.DB }

func NewInquiryRepo(db *sqlx.DB) *InquiryRepo { return &InquiryRepo{db: db} }

const inquiryCols = `id,user_id,listing_id,message,created_at`

// CreateIfAbsent inserts q unless the (user, listing) pair already has an
// inquiry. The UNIQUE(user_id, listing_id) constraint decides; on conflict the
// stored inquiry is returned with created=false and nothing is written.
func (r *InquiryRepo) CreateIfAbsent(q domain.Inquiry) (domain.Inquiry, bool, error) {
	if q.CreatedAt == "" {
		q.CreatedAt = domain.Now()
	}
	err := r.db.Get(&q.ID, r.db.Rebind(`
		INSERT INTO inquiries(user_id,listing_id,message,created_at)
		VALUES(?,?,?,?)
		ON CONFLICT(user_id, listing_id) DO NOTHING
		RETURNING id`), q.UserID, q.ListingID, q.Message, q.CreatedAt)
	if err == nil {
		return q, true, nil
	}
	if err = wrap(err, "repo: CreateInquiry"); !stderrors.Is(err, ErrNotFound) {
		return domain.Inquiry{}, false, err
	}
	existing, err := r.Find(q.UserID, q.ListingID)
	if err != nil {
		return domain.Inquiry{}, false, err
	}
	return existing, false, nil
}

func (r *InquiryRepo) Find(userID, listingID int64) (domain.Inquiry, error) {
	var q domain.Inquiry
	err := r.db.Get(&q, r.db.Rebind(`SELECT `+inquiryCols+` FROM inquiries WHERE user_id=? AND listing_id=?`), userID, listingID)
	return q, wrap(err, "repo: FindInquiry")
}

func (r *InquiryRepo) Exists(userID, listingID int64) (bool, error) {
	var n int
	err := r.db.Get(&n, r.db.Rebind(`SELECT COUNT(*) FROM inquiries WHERE user_id=? AND listing_id=?`), userID, listingID)
	return n > 0, wrap(err, "repo: InquiryExists")
}

// ListByUser returns the user's inquiries joined with their listing, newest first.
func (r *InquiryRepo) ListByUser(userID int64) ([]domain.InquiryView, error) {
	var out []domain.InquiryView
	err := r.db.Select(&out, r.db.Rebind(`
	  SELECT q.id, q.user_id, q.listing_id, q.message, q.created_at,
	         l.title AS listing_title, l.location AS listing_location, l.price AS listing_price
	  FROM inquiries q
	  JOIN listings l ON l.id = q.listing_id
	  WHERE q.user_id = ?
	  ORDER BY q.created_at DESC, q.id DESC
	`), userID)
	return out, wrap(err, "repo: ListInquiriesByUser")
}

// CountByListing maps listing id to number of inquiries, for the admin dashboard.
func (r *InquiryRepo) CountByListing() (map[int64]int, error) {
	var rows []struct {
		ListingID int64 `db:"listing_id"`
		N         int   `db:"n"`
	}
	if err := r.db.Select(&rows, `SELECT listing_id, COUNT(*) AS n FROM inquiries GROUP BY listing_id`); err != nil {
		return nil, wrap(err, "repo: CountInquiries")
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.ListingID] = row.N
	}
	return out, nil
}
