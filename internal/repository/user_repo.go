package repository

import (
	"context"
	"errors"
	"time"

	"taskboard/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, COALESCE(username, ''), email, password, COALESCE(image, ''), role, COALESCE(reset_otp, ''), expires_otp, task_ids, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Password,
		&u.Image,
		&u.Role,
		&u.ResetOTP,
		&u.ExpiresAt,
		&u.TaskIDs,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StoreError{Op: "scan user", Err: err}
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = LOWER($1)`, email)
	return scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password, image, role)
		 VALUES ($1, LOWER($2), $3, $4, $5)
		 RETURNING id, email, created_at, updated_at`,
		u.Username, u.Email, u.Password, u.Image, u.Role,
	).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return &domain.StoreError{Op: "insert user", Err: err}
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx,
		`UPDATE users
		 SET username = $1, email = LOWER($2), image = $3, updated_at = now()
		 WHERE id = $4
		 RETURNING updated_at`,
		u.Username, u.Email, u.Image, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return &domain.StoreError{Op: "update user", Err: err}
	}
	return nil
}

func (r *UserRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password = $1, reset_otp = NULL, expires_otp = NULL, updated_at = now() WHERE id = $2`,
		hash, id)
	if err != nil {
		return &domain.StoreError{Op: "set password", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetResetOTP(ctx context.Context, id int64, otp string, expires time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET reset_otp = $1, expires_otp = $2, updated_at = now() WHERE id = $3`,
		otp, expires, id)
	if err != nil {
		return &domain.StoreError{Op: "set reset otp", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return &domain.StoreError{Op: "delete user", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list users", Err: err}
	}
	defer rows.Close()

	var res []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate users", Err: err}
	}
	return res, nil
}

// AppendTaskID registers a task id in the owner's back-reference set. The
// guard keeps the registration at-most-once under retries.
func (r *UserRepository) AppendTaskID(ctx context.Context, userID int64, taskID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET task_ids = array_append(task_ids, $1), updated_at = now()
		 WHERE id = $2 AND NOT ($1 = ANY(task_ids))`,
		taskID, userID)
	if err != nil {
		return &domain.StoreError{Op: "append task id", Err: err}
	}
	return nil
}

// RemoveTaskID pulls a task id from the owner's back-reference set. A
// missing user or an id that was never registered is not an error.
func (r *UserRepository) RemoveTaskID(ctx context.Context, userID int64, taskID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET task_ids = array_remove(task_ids, $1), updated_at = now() WHERE id = $2`,
		taskID, userID)
	if err != nil {
		return &domain.StoreError{Op: "remove task id", Err: err}
	}
	return nil
}

func (r *UserRepository) TaskIDs(ctx context.Context, userID int64) ([]string, error) {
	var ids []string
	err := r.db.QueryRow(ctx,
		`SELECT task_ids FROM users WHERE id = $1`, userID).Scan(&ids)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StoreError{Op: "get task ids", Err: err}
	}
	return ids, nil
}
