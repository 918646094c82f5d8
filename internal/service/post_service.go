package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"microblog/internal/domain"
	"microblog/internal/repository"
	"microblog/internal/storage"
)

var (
	// ErrPostNotFound is returned when a post id does not resolve.
	ErrPostNotFound = errors.New("post not found")
	// ErrNotAuthor is returned when someone other than the author tries to mutate a post.
	ErrNotAuthor = errors.New("only the author may edit a post")
)

// Feed is one page of posts for a given scope.
type Feed = domain.Page[domain.Post]

// GroupFeed pairs a group with one page of its posts.
type GroupFeed struct {
	Group *domain.Group
	Posts Feed
}

// ProfileFeed pairs an author with one page of their posts.
type ProfileFeed struct {
	Author *domain.User
	Posts  Feed
}

// PostService coordinates post authoring and the three feed scopes.
type PostService interface {
	Create(ctx context.Context, authorID int64, form PostForm) (*domain.Post, error)
	Edit(ctx context.Context, editorID, postID int64, form PostForm) (*domain.Post, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	IndexFeed(ctx context.Context, page int) (Feed, error)
	GroupFeed(ctx context.Context, slug string, page int) (GroupFeed, error)
	ProfileFeed(ctx context.Context, username string, page int) (ProfileFeed, error)
	AttachImage(ctx context.Context, editorID, postID int64, filename string, body io.Reader, size int64) (*domain.Post, error)
}

type postService struct {
	posts  repository.PostRepository
	groups repository.GroupRepository
	users  repository.UserRepository
	store  storage.Service
}

// NewPostService builds a PostService. store may be nil when image uploads
// are not configured.
func NewPostService(posts repository.PostRepository, groups repository.GroupRepository, users repository.UserRepository, store storage.Service) PostService {
	return &postService{
		posts:  posts,
		groups: groups,
		users:  users,
		store:  store,
	}
}

func (s *postService) Create(ctx context.Context, authorID int64, form PostForm) (*domain.Post, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolveGroup(ctx, form.GroupID); err != nil {
		return nil, err
	}

	post := &domain.Post{
		Text:     strings.TrimSpace(form.Text),
		AuthorID: authorID,
		GroupID:  form.GroupID,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.Get(ctx, post.ID)
}

// Edit mutates text and group only. Identifier, author and creation time
// survive the edit untouched. The author check runs before validation so a
// non-author never sees field-level errors, only the rejection.
func (s *postService) Edit(ctx context.Context, editorID, postID int64, form PostForm) (*domain.Post, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != editorID {
		return nil, ErrNotAuthor
	}

	if err := form.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolveGroup(ctx, form.GroupID); err != nil {
		return nil, err
	}

	post.Text = strings.TrimSpace(form.Text)
	post.GroupID = form.GroupID
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.Get(ctx, postID)
}

func (s *postService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) IndexFeed(ctx context.Context, page int) (Feed, error) {
	return s.feedPage(ctx, repository.PostFilter{}, page)
}

func (s *postService) GroupFeed(ctx context.Context, slug string, page int) (GroupFeed, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return GroupFeed{}, ErrGroupNotFound
		}
		return GroupFeed{}, err
	}

	posts, err := s.feedPage(ctx, repository.PostFilter{GroupID: &group.ID}, page)
	if err != nil {
		return GroupFeed{}, err
	}
	return GroupFeed{Group: group, Posts: posts}, nil
}

func (s *postService) ProfileFeed(ctx context.Context, username string, page int) (ProfileFeed, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProfileFeed{}, ErrUserNotFound
		}
		return ProfileFeed{}, err
	}

	posts, err := s.feedPage(ctx, repository.PostFilter{AuthorID: &user.ID}, page)
	if err != nil {
		return ProfileFeed{}, err
	}
	return ProfileFeed{Author: sanitizeUser(user), Posts: posts}, nil
}

// AttachImage stores an uploaded image in object storage and records its
// location on the post. Author-only, like any other post mutation.
func (s *postService) AttachImage(ctx context.Context, editorID, postID int64, filename string, body io.Reader, size int64) (*domain.Post, error) {
	if s.store == nil {
		return nil, errors.New("image storage is not configured")
	}

	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != editorID {
		return nil, ErrNotAuthor
	}

	key := fmt.Sprintf("posts/%d/%s-%s", postID, uuid.NewString(), sanitizeFilename(filename))
	location, err := s.store.PutObject(ctx, key, body, size)
	if err != nil {
		return nil, fmt.Errorf("store post image: %w", err)
	}

	replaced := post.ImageLocation
	if err := s.posts.UpdateImageLocation(ctx, postID, location); err != nil {
		return nil, err
	}
	if replaced != "" {
		// the new image is already recorded; a failed cleanup only
		// orphans the old object
		_ = s.store.DeleteObject(ctx, replaced)
	}
	return s.Get(ctx, postID)
}

// feedPage runs the paired slice+count queries behind every feed scope.
// Pages past the end come back empty rather than failing.
func (s *postService) feedPage(ctx context.Context, filter repository.PostFilter, page int) (Feed, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return Feed{}, err
	}

	offset := domain.PageOffset(page, domain.FeedPageSize)
	items := []domain.Post{}
	if int64(offset) < total {
		items, err = s.posts.ListPage(ctx, filter, domain.FeedPageSize, offset)
		if err != nil {
			return Feed{}, err
		}
	}

	return domain.NewPage(items, page, domain.FeedPageSize, total), nil
}

func (s *postService) resolveGroup(ctx context.Context, groupID *int64) error {
	if groupID == nil {
		return nil
	}
	if _, err := s.groups.GetByID(ctx, *groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ValidationError{Fields: []FieldError{{
				Field:   "group",
				Message: "выбранной группы не существует",
			}}}
		}
		return err
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}
