package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"microblog/internal/domain"
	"microblog/internal/repository"
)

var (
	// ErrGroupNotFound is returned when a slug or group id does not resolve.
	ErrGroupNotFound = errors.New("group not found")
	// ErrGroupAlreadyExists is returned on a duplicate slug.
	ErrGroupAlreadyExists = errors.New("group already exists")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// GroupService manages the group catalog. Groups are created
// administratively; the posting flow only reads them.
type GroupService interface {
	Create(ctx context.Context, title, slug, description string) (*domain.Group, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
}

type groupService struct {
	groups repository.GroupRepository
}

func NewGroupService(groups repository.GroupRepository) GroupService {
	return &groupService{groups: groups}
}

func (s *groupService) Create(ctx context.Context, title, slug, description string) (*domain.Group, error) {
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)

	if title == "" {
		return nil, errors.New("group title is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, errors.New("group slug must be lowercase letters, digits, '-' or '_'")
	}

	group := &domain.Group{
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(description),
	}
	if _, err := s.groups.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrGroupAlreadyExists
		}
		return nil, err
	}
	return group, nil
}

func (s *groupService) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

func (s *groupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}
