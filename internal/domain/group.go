package domain

import "time"

// Group is a named category posts can be filed under. The slug identifies
// the group in URLs and is unique; it must not change once posts refer to it.
type Group struct {
	ID          int64
	Title       string
	Slug        string
	Description string
	CreatedAt   time.Time
}
