package domain

import "time"

// Post is a single authored text entry, optionally filed under a group.
// Author and Group carry the joined entities when the repository loads them;
// GroupID is nil for ungrouped posts.
type Post struct {
	ID            int64
	Text          string
	AuthorID      int64
	GroupID       *int64
	ImageLocation string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Author *User
	Group  *Group
}
