package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
)

const contentColumns = `c.id, c.title, c.body, c.author_id, u.username,
	c.is_personalized, c.associated_users, c.metadata, c.status, c.tags,
	c.version, c.previous_versions, c.created_at, c.updated_at`

type ContentRepository struct {
	pool *pgxpool.Pool
}

func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

func scanContent(row pgx.Row) (*entity.Content, error) {
	c := &entity.Content{}
	var (
		metadata []byte
		versions []byte
	)
	err := row.Scan(&c.ID, &c.Title, &c.Body, &c.AuthorID, &c.AuthorUsername,
		&c.IsPersonalized, &c.AssociatedUsers, &metadata, &c.Status, &c.Tags,
		&c.Version, &versions, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, err
		}
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	if len(versions) > 0 {
		if err := json.Unmarshal(versions, &c.PreviousVersions); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func marshalVersions(vs []entity.ContentVersion) []byte {
	if vs == nil {
		vs = []entity.ContentVersion{}
	}
	b, _ := json.Marshal(vs)
	return b
}

func (r *ContentRepository) Create(ctx context.Context, c *entity.Content) error {
	if c.AssociatedUsers == nil {
		c.AssociatedUsers = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contents (title, body, author_id, is_personalized, associated_users, metadata, status, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version, created_at, updated_at
	`, c.Title, c.Body, c.AuthorID, c.IsPersonalized, c.AssociatedUsers,
		marshalMap(c.Metadata), c.Status, c.Tags)
	return row.Scan(&c.ID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ContentRepository) GetByID(ctx context.Context, id string) (*entity.Content, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	q := `SELECT ` + contentColumns + `
		FROM contents c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1`
	return scanContent(r.pool.QueryRow(ctx, q, id))
}

func (r *ContentRepository) Update(ctx context.Context, c *entity.Content) error {
	c.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE contents
		SET title = $1, body = $2, is_personalized = $3, associated_users = $4,
		    metadata = $5, status = $6, tags = $7, version = $8,
		    previous_versions = $9, updated_at = $10
		WHERE id = $11
	`, c.Title, c.Body, c.IsPersonalized, c.AssociatedUsers, marshalMap(c.Metadata),
		c.Status, c.Tags, c.Version, marshalVersions(c.PreviousVersions), c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ContentRepository) Query(ctx context.Context, f repository.ContentFilter) ([]*entity.Content, int, error) {
	where := make([]string, 0, 5)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Status != "" {
		where = append(where, "c.status = "+arg(f.Status))
	}
	if len(f.Tags) > 0 {
		// set-membership OR: any shared tag matches
		where = append(where, "c.tags && "+arg(f.Tags))
	}
	if f.Search != "" {
		where = append(where, "to_tsvector('simple', c.title || ' ' || c.body) @@ plainto_tsquery('simple', "+arg(f.Search)+")")
	}
	if f.AuthorID != "" {
		where = append(where, "c.author_id = "+arg(f.AuthorID))
	}
	if f.Personalized != nil {
		where = append(where, "c.is_personalized = "+arg(*f.Personalized))
	}
	if f.VisibleTo != "" {
		// the same parameter feeds a uuid and a text[] comparison, so pin
		// it to text on both sides
		p := arg(f.VisibleTo)
		where = append(where, "(c.is_personalized = false OR c.author_id::text = "+p+" OR "+p+" = ANY(c.associated_users))")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contents c`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	q := `SELECT ` + contentColumns + `
		FROM contents c
		JOIN users u ON u.id = c.author_id` + clause + `
		ORDER BY c.created_at DESC
		LIMIT ` + arg(limit) + ` OFFSET ` + arg((page-1)*limit)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	contents := make([]*entity.Content, 0, limit)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, err
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return contents, total, nil
}

var _ repository.ContentRepository = (*ContentRepository)(nil)
