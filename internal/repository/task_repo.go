package repository

import (
	"context"
	"errors"

	"taskboard/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, category, status, priority, due_date, is_deleted, is_completed, created_by, created_at, updated_at`

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.IsDeleted,
		&t.IsCompleted,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StoreError{Op: "scan task", Err: err}
	}
	return &t, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

// FindByTitleFold does a case-insensitive exact title match across all
// tasks, regardless of owner.
func (r *TaskRepository) FindByTitleFold(ctx context.Context, title string) (*domain.Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE LOWER(title) = LOWER($1) LIMIT 1`, title)
	return scanTask(row)
}

func (r *TaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list tasks", Err: err}
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ANY($1) ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, &domain.StoreError{Op: "list tasks by ids", Err: err}
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepository) ListCompletedByOwner(ctx context.Context, owner int64) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = $1 AND created_by = $2 ORDER BY created_at DESC`,
		domain.StatusCompleted, owner)
	if err != nil {
		return nil, &domain.StoreError{Op: "list completed tasks", Err: err}
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*domain.Task, error) {
	var res []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate tasks", Err: err}
	}
	return res, nil
}

func (r *TaskRepository) Insert(ctx context.Context, t *domain.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (id, title, description, category, status, priority, due_date, is_completed, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		t.ID, t.Title, t.Description, t.Category, t.Status, t.Priority, t.DueDate, t.IsCompleted, t.CreatedBy,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return &domain.StoreError{Op: "insert task", Err: err}
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, category = $3, status = $4, priority = $5,
		     due_date = $6, is_completed = $7, updated_at = now()
		 WHERE id = $8
		 RETURNING updated_at`,
		t.Title, t.Description, t.Category, t.Status, t.Priority, t.DueDate, t.IsCompleted, t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return &domain.StoreError{Op: "update task", Err: err}
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return &domain.StoreError{Op: "delete task", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
