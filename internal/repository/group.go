package repository

import (
	"context"

	"microblog/internal/domain"
)

// GroupRepository exposes persistence operations for Group categories.
// Groups are created administratively and read-only from the posting flow.
type GroupRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, group *domain.Group) (int64, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Group, error)
	GetByID(ctx context.Context, id int64) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
}
