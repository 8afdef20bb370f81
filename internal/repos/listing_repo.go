package repos

import (
	"strings"

	"github.com/Gupta12p/HouseListing/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ListingRepo struct{ db *sqlx.DB }

func NewListingRepo(db *sqlx.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingCols = `id,title,price,location,description,image_1,image_2,image_3,created_at`

// Sort orders accepted by List.
const (
	SortNone = ""
	SortAsc  = "asc"
	SortDesc = "desc"
)

type ListQuery struct {
	Location string // case-insensitive substring; empty matches all
	Sort     string // SortNone, SortAsc or SortDesc by price
}

func (r *ListingRepo) Create(l *domain.Listing) error {
	if l.CreatedAt == "" {
		l.CreatedAt = domain.Now()
	}
	err := r.db.Get(&l.ID, r.db.Rebind(`
		INSERT INTO listings(title,price,location,description,image_1,image_2,image_3,created_at)
		VALUES(?,?,?,?,?,?,?,?)
		RETURNING id`),
		l.Title, l.Price, l.Location, l.Description, l.Image1, l.Image2, l.Image3, l.CreatedAt)
	return wrap(err, "repo: CreateListing")
}

func (r *ListingRepo) Get(id int64) (domain.Listing, error) {
	var l domain.Listing
	err := r.db.Get(&l, r.db.Rebind(`SELECT `+listingCols+` FROM listings WHERE id=?`), id)
	return l, wrap(err, "repo: GetListing")
}

// List filters by location, then orders by price when a sort is requested,
// otherwise newest first.
func (r *ListingRepo) List(q ListQuery) ([]domain.Listing, error) {
	where := `1=1`
	args := []any{}
	if q.Location != "" {
		where += ` AND LOWER(location) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(q.Location))+"%")
	}

	order := `created_at DESC, id DESC`
	switch q.Sort {
	case SortAsc:
		order = `price ASC, ` + order
	case SortDesc:
		order = `price DESC, ` + order
	}

	var out []domain.Listing
	err := r.db.Select(&out, r.db.Rebind(`SELECT `+listingCols+` FROM listings WHERE `+where+` ORDER BY `+order), args...)
	return out, wrap(err, "repo: ListListings")
}

// DeleteCascade removes the listing's inquiries and then the listing in one
// transaction, returning the deleted row so its images can be cleaned up.
func (r *ListingRepo) DeleteCascade(id int64) (domain.Listing, error) {
	var l domain.Listing
	tx, err := r.db.Beginx()
	if err != nil {
		return l, wrap(err, "repo: DeleteListing begin")
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.Get(&l, tx.Rebind(`SELECT `+listingCols+` FROM listings WHERE id=?`), id); err != nil {
		return l, wrap(err, "repo: DeleteListing get")
	}
	if _, err := tx.Exec(tx.Rebind(`DELETE FROM inquiries WHERE listing_id=?`), id); err != nil {
		return l, wrap(err, "repo: DeleteListing inquiries")
	}
	if _, err := tx.Exec(tx.Rebind(`DELETE FROM listings WHERE id=?`), id); err != nil {
		return l, wrap(err, "repo: DeleteListing")
	}
	return l, wrap(tx.Commit(), "repo: DeleteListing commit")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
