package sqlite

import (
	"context"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/pomomo-focus"
)

const (
	SelectAllSessions = "SELECT id, task_id, type, phase, duration_minutes, completed_at, created_at, updated_at FROM pomodoro_sessions"
)

type sessionEntity struct {
	ID              string
	TaskID          string
	Type            string
	Phase           uint8
	DurationMinutes int
	CompletedAt     int64
	CreatedAt       int64
	UpdatedAt       int64
}

// sessionRepo stores finished pomodoro phases
type sessionRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

func NewSessionRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *sessionRepo {
	return &sessionRepo{
		l:        logger,
		dbGetter: dbGetter,
	}
}

func (r *sessionRepo) InsertSession(ctx context.Context, session pomomo.SessionRecord) (pomomo.ExistingSessionRecord, error) {
	if session.Type == "" {
		return pomomo.ExistingSessionRecord{}, fmt.Errorf("provide required field 'Type'")
	}
	if session.CompletedAt.IsZero() {
		session.CompletedAt = time.Now()
	}

	existingRecord := pomomo.ExistingSessionRecord{
		SessionRecord:  session,
		ExistingRecord: pomomo.NewExistingRecord[pomomo.SessionID](uuid.NewString()),
	}
	e := mapToSessionEntity(existingRecord)

	args := []any{
		e.ID,
		e.TaskID,
		e.Type,
		e.Phase,
		e.DurationMinutes,
		e.CompletedAt,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO pomodoro_sessions (id, task_id, type, phase, duration_minutes, completed_at, created_at, updated_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating session", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return pomomo.ExistingSessionRecord{}, err
	}

	return existingRecord, nil
}

func (r *sessionRepo) GetSessionsByTask(ctx context.Context, taskID pomomo.TaskID) ([]pomomo.ExistingSessionRecord, error) {
	if taskID == "" {
		return nil, fmt.Errorf("provide taskID")
	}

	query := fmt.Sprintf("%s WHERE task_id = ? ORDER BY completed_at", SelectAllSessions)
	r.l.Debug("getting sessions by task", "query", query, "taskID", taskID)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var sessions []pomomo.ExistingSessionRecord
	for rows.Next() {
		var e sessionEntity
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Type, &e.Phase, &e.DurationMinutes, &e.CompletedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, mapToExistingSessionRecord(e))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func mapToSessionEntity(session pomomo.ExistingSessionRecord) sessionEntity {
	return sessionEntity{
		ID:              string(session.ID),
		TaskID:          string(session.TaskID),
		Type:            string(session.Type),
		Phase:           uint8(session.Phase),
		DurationMinutes: session.DurationMinutes,
		CompletedAt:     session.CompletedAt.Unix(),
		CreatedAt:       session.CreatedAt.Unix(),
		UpdatedAt:       session.UpdatedAt.Unix(),
	}
}

func mapToExistingSessionRecord(e sessionEntity) pomomo.ExistingSessionRecord {
	return pomomo.ExistingSessionRecord{
		ExistingRecord: pomomo.ExistingRecord[pomomo.SessionID]{
			ID:        pomomo.SessionID(e.ID),
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		SessionRecord: pomomo.SessionRecord{
			TaskID:          pomomo.TaskID(e.TaskID),
			Type:            pomomo.SessionType(e.Type),
			Phase:           pomomo.Phase(e.Phase),
			DurationMinutes: e.DurationMinutes,
			CompletedAt:     time.Unix(e.CompletedAt, 0),
		},
	}
}
