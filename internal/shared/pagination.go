package shared

// Listing window bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a normalized limit/offset window for listings.
type Page struct {
	Limit  int
	Offset int
}

// NewPage clamps limit and offset into their allowed ranges.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
