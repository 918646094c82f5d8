// Package mock provides in-memory repository implementations for tests.
package mock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"microblog/internal/domain"
	"microblog/internal/repository"
)

type UserRepository struct {
	Users  map[int64]*domain.User
	nextID int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{Users: make(map[int64]*domain.User), nextID: 1}
}

func (m *UserRepository) Init(ctx context.Context) error { return nil }

func (m *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	for _, u := range m.Users {
		if u.Username == user.Username {
			return 0, fmt.Errorf("user %q: %w", user.Username, repository.ErrDuplicate)
		}
	}
	user.ID = m.nextID
	m.nextID++
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	m.Users[user.ID] = &cp
	return user.ID, nil
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range m.Users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
}

func (m *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

type GroupRepository struct {
	Groups map[int64]*domain.Group
	nextID int64
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{Groups: make(map[int64]*domain.Group), nextID: 1}
}

func (m *GroupRepository) Init(ctx context.Context) error { return nil }

func (m *GroupRepository) Create(ctx context.Context, group *domain.Group) (int64, error) {
	for _, g := range m.Groups {
		if g.Slug == group.Slug {
			return 0, fmt.Errorf("group slug %q: %w", group.Slug, repository.ErrDuplicate)
		}
	}
	group.ID = m.nextID
	m.nextID++
	group.CreatedAt = time.Now().UTC()
	cp := *group
	m.Groups[group.ID] = &cp
	return group.ID, nil
}

func (m *GroupRepository) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	for _, g := range m.Groups {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("group: %w", repository.ErrNotFound)
}

func (m *GroupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	g, ok := m.Groups[id]
	if !ok {
		return nil, fmt.Errorf("group: %w", repository.ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

func (m *GroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	for _, g := range m.Groups {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Title < groups[j].Title })
	return groups, nil
}

// PostRepository keeps posts in memory and hands out distinct, strictly
// increasing creation timestamps so ordering assertions are deterministic.
type PostRepository struct {
	Posts  map[int64]*domain.Post
	users  *UserRepository
	groups *GroupRepository
	nextID int64
	clock  time.Time
}

func NewPostRepository(users *UserRepository, groups *GroupRepository) *PostRepository {
	return &PostRepository{
		Posts:  make(map[int64]*domain.Post),
		users:  users,
		groups: groups,
		nextID: 1,
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *PostRepository) Init(ctx context.Context) error { return nil }

func (m *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	post.ID = m.nextID
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	post.CreatedAt = m.clock
	post.UpdatedAt = m.clock
	cp := *post
	m.Posts[post.ID] = &cp
	return post.ID, nil
}

func (m *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	stored, ok := m.Posts[post.ID]
	if !ok {
		return fmt.Errorf("post %d: %w", post.ID, repository.ErrNotFound)
	}
	stored.Text = post.Text
	stored.GroupID = post.GroupID
	stored.ImageLocation = post.ImageLocation
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *PostRepository) UpdateImageLocation(ctx context.Context, id int64, location string) error {
	stored, ok := m.Posts[id]
	if !ok {
		return fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
	}
	stored.ImageLocation = location
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	p, ok := m.Posts[id]
	if !ok {
		return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
	}
	return m.join(*p), nil
}

func (m *PostRepository) ListPage(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]domain.Post, error) {
	matched := m.matching(filter)
	if offset >= len(matched) {
		return []domain.Post{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]domain.Post, 0, end-offset)
	for _, p := range matched[offset:end] {
		page = append(page, *m.join(p))
	}
	return page, nil
}

func (m *PostRepository) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	return int64(len(m.matching(filter))), nil
}

func (m *PostRepository) matching(filter repository.PostFilter) []domain.Post {
	var posts []domain.Post
	for _, p := range m.Posts {
		switch {
		case filter.AuthorID != nil && p.AuthorID != *filter.AuthorID:
		case filter.GroupID != nil && (p.GroupID == nil || *p.GroupID != *filter.GroupID):
		default:
			posts = append(posts, *p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

func (m *PostRepository) join(post domain.Post) *domain.Post {
	if u, ok := m.users.Users[post.AuthorID]; ok {
		cp := *u
		post.Author = &cp
	}
	if post.GroupID != nil {
		if g, ok := m.groups.Groups[*post.GroupID]; ok {
			cp := *g
			post.Group = &cp
		}
	}
	return &post
}

var (
	_ repository.UserRepository  = (*UserRepository)(nil)
	_ repository.GroupRepository = (*GroupRepository)(nil)
	_ repository.PostRepository  = (*PostRepository)(nil)
)
