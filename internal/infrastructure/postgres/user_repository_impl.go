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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
)

const userColumns = `id, username, email, password_hash, role, active, avatar_url,
	password_changed_at, refresh_tokens, preferences, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var (
		changedAt *time.Time
		prefs     []byte
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.Active,
		&u.AvatarURL, &changedAt, &u.RefreshTokens, &prefs, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if changedAt != nil {
		u.PasswordChangedAt = *changedAt
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
			return nil, err
		}
	}
	if u.Preferences == nil {
		u.Preferences = map[string]any{}
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func marshalMap(m map[string]any) []byte {
	if m == nil {
		m = map[string]any{}
	}
	b, _ := json.Marshal(m)
	return b
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.RefreshTokens == nil {
		u.RefreshTokens = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, avatar_url, refresh_tokens, preferences)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, active, created_at, updated_at
	`, u.Username, u.Email, u.Password, u.Role, u.AvatarURL, u.RefreshTokens, marshalMap(u.Preferences))

	if err := row.Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if !includeInactive {
		q += ` AND active = true`
	}
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string, includeInactive bool) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if !includeInactive {
		q += ` AND active = true`
	}
	return scanUser(r.pool.QueryRow(ctx, q, strings.ToLower(email)))
}

// FindByEmailOrUsername is the combined duplicate-check used at
// registration. Inactive users still hold their username and email, so no
// active filter here.
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $2 LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, q, strings.ToLower(email), username))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, role = $4, active = $5,
		    avatar_url = $6, password_changed_at = $7, refresh_tokens = $8,
		    preferences = $9, updated_at = $10
		WHERE id = $11
	`, u.Username, u.Email, u.Password, u.Role, u.Active, u.AvatarURL,
		nullableTime(u.PasswordChangedAt), u.RefreshTokens, marshalMap(u.Preferences),
		u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateRefreshTokens(ctx context.Context, id string, tokens []string) error {
	if tokens == nil {
		tokens = []string{}
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_tokens = $1, updated_at = now() WHERE id = $2
	`, tokens, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountActiveByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			// malformed references can never match anyone
			ids = nil
			break
		}
	}
	if ids == nil {
		return 0, nil
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE id = ANY($1) AND active = true
	`, ids).Scan(&n)
	return n, err
}

func (r *UserRepository) List(ctx context.Context, f repository.UserFilter) ([]*entity.User, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if !f.IncludeInactive {
		where = append(where, "active = true")
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := strconv.Itoa(len(args))
		where = append(where, "(username ILIKE $"+p+" OR email ILIKE $"+p+")")
	}
	if f.Role != "" {
		args = append(args, f.Role)
		where = append(where, "role = $"+strconv.Itoa(len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
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
	args = append(args, limit, (page-1)*limit)
	q := `SELECT ` + userColumns + ` FROM users` + clause +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
