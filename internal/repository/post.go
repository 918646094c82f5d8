package repository

import (
	"context"

	"microblog/internal/domain"
)

// PostFilter narrows a feed query to one author or one group. Zero value
// selects the whole site feed.
type PostFilter struct {
	AuthorID *int64
	GroupID  *int64
}

// PostRepository exposes persistence operations for Post entries. ListPage
// and Count take the same filter so feed slices and their pagination
// metadata stay consistent. Listed posts come back most-recent-first with
// author and group joined in.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Update(ctx context.Context, post *domain.Post) error
	UpdateImageLocation(ctx context.Context, id int64, location string) error
	Get(ctx context.Context, id int64) (*domain.Post, error)
	ListPage(ctx context.Context, filter PostFilter, limit, offset int) ([]domain.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
}
