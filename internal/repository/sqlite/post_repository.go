package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"microblog/internal/domain"
	"microblog/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	author_id INTEGER NOT NULL REFERENCES users(id),
	group_id INTEGER NULL REFERENCES groups(id),
	image_location TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id, created_at);
CREATE INDEX IF NOT EXISTS idx_posts_group ON posts(group_id, created_at);
`

// selectPost pulls a post together with its author and, when set, its group.
const selectPost = `
SELECT p.id, p.text, p.author_id, p.group_id, p.image_location, p.created_at, p.updated_at,
	u.id, u.username, u.created_at, u.updated_at,
	g.id, g.title, g.slug, g.description, g.created_at
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN groups g ON g.id = p.group_id
`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO posts (text, author_id, group_id, image_location, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		post.Text,
		post.AuthorID,
		post.GroupID,
		post.ImageLocation,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

// Update rewrites the mutable columns only; author_id and created_at never change.
func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE posts
SET text = ?, group_id = ?, image_location = ?, updated_at = ?
WHERE id = ?`,
		post.Text,
		post.GroupID,
		post.ImageLocation,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("post rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("post %d: %w", post.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *PostRepository) UpdateImageLocation(ctx context.Context, id int64, location string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE posts
SET image_location = ?, updated_at = ?
WHERE id = ?`,
		location,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update post image: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("post rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, selectPost+`WHERE p.id = ?`, id)
	post, err := scanPost(row)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) ListPage(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]domain.Post, error) {
	query := selectPost
	where, args := filterClause(filter)
	query += where + `
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM posts p`
	where, args := filterClause(filter)
	query += where

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func filterClause(filter repository.PostFilter) (string, []any) {
	switch {
	case filter.AuthorID != nil:
		return `
WHERE p.author_id = ?`, []any{*filter.AuthorID}
	case filter.GroupID != nil:
		return `
WHERE p.group_id = ?`, []any{*filter.GroupID}
	default:
		return "", nil
	}
}

func scanPost(row interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var (
		post     domain.Post
		author   domain.User
		groupID  sql.NullInt64
		gID      sql.NullInt64
		gTitle   sql.NullString
		gSlug    sql.NullString
		gDesc    sql.NullString
		gCreated sql.NullTime
	)
	if err := row.Scan(
		&post.ID,
		&post.Text,
		&post.AuthorID,
		&groupID,
		&post.ImageLocation,
		&post.CreatedAt,
		&post.UpdatedAt,
		&author.ID,
		&author.Username,
		&author.CreatedAt,
		&author.UpdatedAt,
		&gID,
		&gTitle,
		&gSlug,
		&gDesc,
		&gCreated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	post.Author = &author
	if groupID.Valid {
		post.GroupID = &groupID.Int64
	}
	if gID.Valid {
		post.Group = &domain.Group{
			ID:          gID.Int64,
			Title:       gTitle.String,
			Slug:        gSlug.String,
			Description: gDesc.String,
			CreatedAt:   gCreated.Time,
		}
	}
	return &post, nil
}
