package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"microblog/internal/domain"
	"microblog/internal/repository"
)

const createGroupsTable = `
CREATE TABLE IF NOT EXISTS groups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) repository.GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createGroupsTable); err != nil {
		return fmt.Errorf("create groups table: %w", err)
	}
	return nil
}

func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) (int64, error) {
	group.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO groups (title, slug, description, created_at)
VALUES (?, ?, ?, ?)`,
		group.Title,
		group.Slug,
		group.Description,
		group.CreatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("group slug %q: %w", group.Slug, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert group: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("group last insert id: %w", err)
	}
	group.ID = id
	return id, nil
}

func (r *GroupRepository) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, slug, description, created_at
FROM groups
WHERE slug = ?`,
		slug,
	)
	return scanGroup(row)
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, slug, description, created_at
FROM groups
WHERE id = ?`,
		id,
	)
	return scanGroup(row)
}

func (r *GroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, slug, description, created_at
FROM groups
ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(
			&group.ID,
			&group.Title,
			&group.Slug,
			&group.Description,
			&group.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

func scanGroup(row *sql.Row) (*domain.Group, error) {
	var group domain.Group
	if err := row.Scan(
		&group.ID,
		&group.Title,
		&group.Slug,
		&group.Description,
		&group.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}
	return &group, nil
}
