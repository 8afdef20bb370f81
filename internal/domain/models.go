package domain

// Placeholder references used for an image slot when no upload was stored.
const (
	PlaceholderImage1 = "image1.jpg"
	PlaceholderImage2 = "image2.jpg"
	PlaceholderImage3 = "image3.jpg"
)

// MaxImages is the number of image slots a listing carries.
const MaxImages = 3

// Placeholder returns the placeholder reference for image slot i (0-based).
func Placeholder(i int) string {
	switch i {
	case 0:
		return PlaceholderImage1
	case 1:
		return PlaceholderImage2
	default:
		return PlaceholderImage3
	}
}

// IsPlaceholder reports whether name is one of the shared placeholder references.
func IsPlaceholder(name string) bool {
	return name == PlaceholderImage1 || name == PlaceholderImage2 || name == PlaceholderImage3
}

type Listing struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Price       int64  `db:"price"`
	Location    string `db:"location"`
	Description string `db:"description"`
	Image1      string `db:"image_1"`
	Image2      string `db:"image_2"`
	Image3      string `db:"image_3"`
	CreatedAt   string `db:"created_at"`
}

// Images returns the three image references in slot order.
func (l Listing) Images() []string {
	return []string{l.Image1, l.Image2, l.Image3}
}

type Inquiry struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	ListingID int64  `db:"listing_id"`
	Message   string `db:"message"`
	CreatedAt string `db:"created_at"`
}

// InquiryView is an inquiry joined with the listing it targets, for "my contacts" pages.
type InquiryView struct {
	Inquiry
	ListingTitle    string `db:"listing_title"`
	ListingLocation string `db:"listing_location"`
	ListingPrice    int64  `db:"listing_price"`
}

type Session struct {
	ID        string `db:"id"`
	UserID    int64  `db:"user_id"`
	CreatedAt string `db:"created_at"`
	ExpiresAt string `db:"expires_at"`
}
