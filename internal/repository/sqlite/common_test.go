package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"microblog/internal/domain"
	"microblog/internal/repository"
)

type testRepos struct {
	db     *sql.DB
	users  repository.UserRepository
	groups repository.GroupRepository
	posts  repository.PostRepository
}

func setupRepos(t *testing.T) *testRepos {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := &testRepos{
		db:     db,
		users:  NewUserRepository(db),
		groups: NewGroupRepository(db),
		posts:  NewPostRepository(db),
	}

	ctx := context.Background()
	require.NoError(t, r.users.Init(ctx))
	require.NoError(t, r.groups.Init(ctx))
	require.NoError(t, r.posts.Init(ctx))
	return r
}

func (r *testRepos) addUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, PasswordHash: "hash"}
	_, err := r.users.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func (r *testRepos) addGroup(t *testing.T, title, slug string) *domain.Group {
	t.Helper()
	group := &domain.Group{Title: title, Slug: slug, Description: "d"}
	_, err := r.groups.Create(context.Background(), group)
	require.NoError(t, err)
	return group
}

func (r *testRepos) addPost(t *testing.T, authorID int64, groupID *int64, text string) *domain.Post {
	t.Helper()
	post := &domain.Post{Text: text, AuthorID: authorID, GroupID: groupID}
	_, err := r.posts.Create(context.Background(), post)
	require.NoError(t, err)
	return post
}
