package pomomo

import "time"

type ExistingRecord[T ~string] struct {
	ID        T
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewExistingRecord[T ~string](id string) ExistingRecord[T] {
	now := time.Now()
	return ExistingRecord[T]{
		ID:        T(id),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DateKey formats t as the YYYY-MM-DD key used by daily statistics.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
