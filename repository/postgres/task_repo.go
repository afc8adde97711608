package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskSelect = `
	SELECT t.id, t.user_id, t.title, t.description, t.status, t.due_date,
		t.created_at, t.updated_at, owner.username, owner.email
	FROM tasks t
	JOIN users owner ON owner.id = t.user_id
`

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id)
	return scanTask(row)
}

func (r *taskRepository) ListForViewer(ctx context.Context, viewerID int64) ([]domain.Task, error) {
	const where = `
	LEFT JOIN task_participants vp ON vp.task_id = t.id AND vp.user_id = $1
	WHERE t.user_id = $1 OR vp.user_id IS NOT NULL
	ORDER BY t.created_at DESC, t.id DESC
	`
	rows, err := r.pool.Query(ctx, taskSelect+where, viewerID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks for viewer %d: %w", viewerID, err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	const query = `
	INSERT INTO tasks (user_id, title, description, status, due_date)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query,
		in.OwnerID,
		in.Title,
		in.Description,
		string(in.Status),
		nullDate(in.DueDate),
	).Scan(&id); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *taskRepository) Update(ctx context.Context, id int64, changes domain.TaskChanges) error {
	if changes.Empty() {
		return domain.ErrEmptyUpdate
	}

	sets := make([]string, 0, 5)
	args := []interface{}{id}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if changes.Title != nil {
		add("title", *changes.Title)
	}
	switch {
	case changes.ClearDescription:
		add("description", nil)
	case changes.Description != nil:
		add("description", *changes.Description)
	}
	if changes.Status != nil {
		add("status", string(*changes.Status))
	}
	switch {
	case changes.ClearDueDate:
		add("due_date", nil)
	case changes.DueDate != nil:
		add("due_date", nullDate(changes.DueDate))
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $1`, strings.Join(sets, ", "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) SetStatus(ctx context.Context, id int64, status domain.TaskStatus) error {
	const query = `UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("setting status of task %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
		due    *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&due,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.Owner.Username,
		&task.Owner.Email,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.DueDate = due
	task.Owner.ID = task.OwnerID
	return &task, nil
}
