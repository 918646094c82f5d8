package domain

// FeedPageSize bounds the number of posts per feed page.
const FeedPageSize = 10

// Page is one slice of an ordered result set plus the metadata a feed
// renderer needs. Requests past the last page yield an empty Items slice,
// never an error.
type Page[T any] struct {
	Items       []T
	Number      int
	Size        int
	TotalItems  int64
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

// NewPage assembles pagination metadata for the given slice. number is
// 1-indexed; values below 1 are treated as 1.
func NewPage[T any](items []T, number, size int, totalItems int64) Page[T] {
	if number < 1 {
		number = 1
	}
	if items == nil {
		items = []T{}
	}
	totalPages := int((totalItems + int64(size) - 1) / int64(size))
	return Page[T]{
		Items:       items,
		Number:      number,
		Size:        size,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     number < totalPages,
		HasPrevious: number > 1 && totalItems > 0,
	}
}

// PageOffset converts a 1-indexed page number into a row offset.
func PageOffset(number, size int) int {
	if number < 1 {
		number = 1
	}
	return (number - 1) * size
}
