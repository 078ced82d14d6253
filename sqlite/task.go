package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/pomomo-focus"
)

const (
	SelectAllTasks = "SELECT id, title, description, due_date, priority, status, category_id, reminder, created_at, updated_at FROM tasks"
	UpdateTask     = "UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?, status = ?, category_id = ?, reminder = ?, updated_at = ? WHERE id = ?"
)

type taskEntity struct {
	ID          string
	Title       string
	Description string
	DueDate     sql.NullInt64
	Priority    string
	Status      string
	CategoryID  string
	Reminder    bool
	CreatedAt   int64
	UpdatedAt   int64
}

type taskRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

func NewTaskRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *taskRepo {
	return &taskRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

func (r *taskRepo) InsertTask(ctx context.Context, task pomomo.TaskRecord) (pomomo.ExistingTaskRecord, error) {
	if task.Title == "" {
		return pomomo.ExistingTaskRecord{}, fmt.Errorf("provide required field 'Title'")
	}
	if task.Status == "" {
		task.Status = pomomo.TaskPending
	}

	existingRecord := pomomo.ExistingTaskRecord{
		TaskRecord:     task,
		ExistingRecord: pomomo.NewExistingRecord[pomomo.TaskID](uuid.NewString()),
	}
	e := mapToTaskEntity(existingRecord)

	args := []any{
		e.ID,
		e.Title,
		e.Description,
		e.DueDate,
		e.Priority,
		e.Status,
		e.CategoryID,
		e.Reminder,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO tasks (id, title, description, due_date, priority, status, category_id, reminder, created_at, updated_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating task", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return pomomo.ExistingTaskRecord{}, err
	}

	return existingRecord, nil
}

func (r *taskRepo) UpdateTask(ctx context.Context, id pomomo.TaskID, task pomomo.TaskRecord) (pomomo.ExistingTaskRecord, error) {
	existing, err := r.GetTask(ctx, id)
	if err != nil {
		return existing, err
	}

	existing.TaskRecord = task
	existing.UpdatedAt = time.Now()
	e := mapToTaskEntity(existing)

	args := []any{
		e.Title,
		e.Description,
		e.DueDate,
		e.Priority,
		e.Status,
		e.CategoryID,
		e.Reminder,
		e.UpdatedAt,
		e.ID,
	}
	r.l.Debug("updating task", "query", UpdateTask, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, UpdateTask, args...); err != nil {
		return pomomo.ExistingTaskRecord{}, err
	}

	return existing, nil
}

func (r *taskRepo) DeleteTask(ctx context.Context, id pomomo.TaskID) (pomomo.ExistingTaskRecord, error) {
	existing, err := r.GetTask(ctx, id)
	if err != nil {
		return pomomo.ExistingTaskRecord{}, err
	}

	query := "DELETE FROM tasks WHERE id = ?"
	r.l.Debug("deleting task", "query", query, "id", id)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, id); err != nil {
		return pomomo.ExistingTaskRecord{}, err
	}

	return existing, nil
}

func (r *taskRepo) GetTask(ctx context.Context, id pomomo.TaskID) (pomomo.ExistingTaskRecord, error) {
	if id == "" {
		return pomomo.ExistingTaskRecord{}, fmt.Errorf("provide id")
	}

	row := r.dbGetter(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE id=?", SelectAllTasks), id,
	)

	return extractTask(row)
}

// GetTasksByStatus returns every task when no status is given.
func (r *taskRepo) GetTasksByStatus(ctx context.Context, statuses ...pomomo.TaskStatus) ([]pomomo.ExistingTaskRecord, error) {
	query := SelectAllTasks
	var args []any
	if len(statuses) > 0 {
		query = fmt.Sprintf("%s WHERE status IN %s", SelectAllTasks, generateParameters(len(statuses)))
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += " ORDER BY due_date IS NULL, due_date, created_at"

	r.l.Debug("getting tasks by status", "query", query, "statuses", statuses)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var tasks []pomomo.ExistingTaskRecord
	for rows.Next() {
		task, err := extractTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func extractTask(s scannable) (pomomo.ExistingTaskRecord, error) {
	var e taskEntity
	if err := s.Scan(&e.ID, &e.Title, &e.Description, &e.DueDate, &e.Priority, &e.Status, &e.CategoryID, &e.Reminder, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pomomo.ExistingTaskRecord{}, ErrNotFound
		}
		return pomomo.ExistingTaskRecord{}, err
	}

	return mapToExistingTaskRecord(e), nil
}

func mapToTaskEntity(task pomomo.ExistingTaskRecord) taskEntity {
	e := taskEntity{
		ID:          string(task.ID),
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      string(task.Status),
		CategoryID:  task.CategoryID,
		Reminder:    task.Reminder,
		CreatedAt:   task.CreatedAt.Unix(),
		UpdatedAt:   task.UpdatedAt.Unix(),
	}
	if task.DueDate != nil {
		e.DueDate = sql.NullInt64{Int64: task.DueDate.UnixMilli(), Valid: true}
	}
	return e
}

func mapToExistingTaskRecord(e taskEntity) pomomo.ExistingTaskRecord {
	var dueDate *time.Time
	if e.DueDate.Valid {
		d := time.UnixMilli(e.DueDate.Int64)
		dueDate = &d
	}
	return pomomo.ExistingTaskRecord{
		ExistingRecord: pomomo.ExistingRecord[pomomo.TaskID]{
			ID:        pomomo.TaskID(e.ID),
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		TaskRecord: pomomo.TaskRecord{
			Title:       e.Title,
			Description: e.Description,
			DueDate:     dueDate,
			Priority:    e.Priority,
			Status:      pomomo.TaskStatus(e.Status),
			CategoryID:  e.CategoryID,
			Reminder:    e.Reminder,
		},
	}
}
