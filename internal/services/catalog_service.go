package services

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/Gupta12p/HouseListing/internal/domain"
	applog "github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/repos"
	"github.com/Gupta12p/HouseListing/internal/uploads"
	"github.com/Gupta12p/HouseListing/internal/validate"
)

type CatalogService struct {
	Listings *repos.ListingRepo
	Uploads  *uploads.Handler
}

func NewCatalogService(listings *repos.ListingRepo, up *uploads.Handler) *CatalogService {
	return &CatalogService{Listings: listings, Uploads: up}
}

type SearchQuery struct {
	Location string
	Sort     string // "", "asc" or "desc"
}

type ListingInput struct {
	Title       string
	Price       int64
	Location    string
	Description string
}

// FileError reports an image that could not be removed with its listing.
type FileError struct {
	Name    string
	Missing bool
	Err     error
}

type RemovalReport struct {
	Listing    domain.Listing
	Removed    []string
	FileErrors []FileError
}

// ListAll returns listings matching q. Without a sort order, newest first.
// Unknown sort orders are ignored.
func (s *CatalogService) ListAll(q SearchQuery) ([]domain.Listing, error) {
	loc, ok := validate.Location(q.Location)
	if !ok {
		return nil, invalid("location", "must be at most 100 characters of plain text")
	}
	sort, _ := validate.SortOrder(q.Sort)
	return s.Listings.List(repos.ListQuery{Location: loc, Sort: sort})
}

func (s *CatalogService) Get(id int64) (domain.Listing, error) {
	l, err := s.Listings.Get(id)
	if errors.Is(err, repos.ErrNotFound) {
		return l, ErrNotFound
	}
	return l, err
}

// Create stores a listing with up to three images. Each image is handled on
// its own: a missing, disallowed or failed upload leaves that slot on its
// placeholder instead of failing the listing.
func (s *CatalogService) Create(ctx context.Context, admin *domain.User, in ListingInput, images []*multipart.FileHeader) (domain.Listing, error) {
	if err := requireAdmin(admin); err != nil {
		return domain.Listing{}, err
	}
	l, err := s.validateInput(in)
	if err != nil {
		return domain.Listing{}, err
	}

	slots := []*string{&l.Image1, &l.Image2, &l.Image3}
	for i, slot := range slots {
		*slot = domain.Placeholder(i)
		if i >= len(images) || s.Uploads == nil {
			continue
		}
		name, ok, err := s.Uploads.Save(ctx, images[i])
		if err != nil {
			applog.Warn(nil, "listing.image.store.fail", err, map[string]any{"slot": i + 1})
			continue
		}
		if ok {
			*slot = name
		}
	}

	if err := s.Listings.Create(&l); err != nil {
		return domain.Listing{}, err
	}
	return l, nil
}

// Remove deletes the listing and its inquiries, then its stored images.
// Image cleanup is best effort: failures are reported, not returned.
func (s *CatalogService) Remove(ctx context.Context, admin *domain.User, id int64) (RemovalReport, error) {
	var rep RemovalReport
	if err := requireAdmin(admin); err != nil {
		return rep, err
	}
	l, err := s.Listings.DeleteCascade(id)
	if errors.Is(err, repos.ErrNotFound) {
		return rep, ErrNotFound
	}
	if err != nil {
		return rep, err
	}
	rep.Listing = l

	if s.Uploads == nil {
		return rep, nil
	}
	seen := map[string]bool{}
	for _, name := range l.Images() {
		if name == "" || domain.IsPlaceholder(name) || seen[name] {
			continue
		}
		seen[name] = true
		if err := s.Uploads.Store.Delete(ctx, name); err != nil {
			fe := FileError{Name: name, Missing: errors.Is(err, uploads.ErrMissing), Err: err}
			if !fe.Missing {
				fe.Err = errors.Join(ErrStorage, err)
			}
			rep.FileErrors = append(rep.FileErrors, fe)
			continue
		}
		rep.Removed = append(rep.Removed, name)
	}
	return rep, nil
}

func (s *CatalogService) validateInput(in ListingInput) (domain.Listing, error) {
	title, ok := validate.Title(in.Title)
	if !ok {
		return domain.Listing{}, invalid("title", "must be 1-100 characters")
	}
	loc, ok := validate.Title(in.Location)
	if !ok {
		return domain.Listing{}, invalid("location", "must be 1-100 characters")
	}
	desc, ok := validate.Description(in.Description)
	if !ok {
		return domain.Listing{}, invalid("description", "must be at most 5000 characters")
	}
	if in.Price < 0 {
		return domain.Listing{}, invalid("price", "must not be negative")
	}
	return domain.Listing{Title: title, Price: in.Price, Location: loc, Description: desc}, nil
}

func requireAdmin(u *domain.User) error {
	if u == nil {
		return ErrUnauthenticated
	}
	if !u.IsAdmin {
		return ErrForbidden
	}
	return nil
}
