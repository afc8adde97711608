package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
)

type taskRepository struct {
	store *Store
}

// NewTaskRepository returns a SQLite-backed TaskRepository.
func NewTaskRepository(store *Store) repository.TaskRepository {
	return &taskRepository{store: store}
}

const taskSelect = `
	SELECT t.id, t.user_id, t.title, t.description, t.status, t.due_date,
		t.created_at, t.updated_at, owner.username, owner.email
	FROM tasks t
	JOIN users owner ON owner.id = t.user_id
`

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.store.db.QueryRowxContext(ctx, taskSelect+` WHERE t.id = ?`, id)
	return scanTask(row)
}

func (r *taskRepository) ListForViewer(ctx context.Context, viewerID int64) ([]domain.Task, error) {
	const where = `
	LEFT JOIN task_participants vp ON vp.task_id = t.id AND vp.user_id = ?
	WHERE t.user_id = ? OR vp.user_id IS NOT NULL
	ORDER BY t.created_at DESC, t.id DESC
	`
	rows, err := r.store.db.QueryxContext(ctx, taskSelect+where, viewerID, viewerID)
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
	now := time.Now().UTC()
	result, err := r.store.db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, title, description, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.OwnerID, in.Title, in.Description, string(in.Status), in.DueDate, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading task id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *taskRepository) Update(ctx context.Context, id int64, changes domain.TaskChanges) error {
	if changes.Empty() {
		return domain.ErrEmptyUpdate
	}

	var (
		sets []string
		args []interface{}
	)
	if changes.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *changes.Title)
	}
	switch {
	case changes.ClearDescription:
		sets = append(sets, "description = NULL")
	case changes.Description != nil:
		sets = append(sets, "description = ?")
		args = append(args, *changes.Description)
	}
	if changes.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*changes.Status))
	}
	switch {
	case changes.ClearDueDate:
		sets = append(sets, "due_date = NULL")
	case changes.DueDate != nil:
		sets = append(sets, "due_date = ?")
		args = append(args, *changes.DueDate)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := r.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) SetStatus(ctx context.Context, id int64, status domain.TaskStatus) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting status of task %d: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for participants and notifications.
func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.store.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface{ Scan(dest ...interface{}) error }) (*domain.Task, error) {
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scanning task row: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	task.DueDate = due
	task.Owner.ID = task.OwnerID
	return &task, nil
}
