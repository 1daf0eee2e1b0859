package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type hoursRepository struct {
	BaseRepository
}

func NewHoursRepository(base BaseRepository) repository.HoursRepository {
	return &hoursRepository{base}
}

// UpsertHours writes all rows in one statement. Rows must not repeat a
// (clinic, weekday) pair.
func (r *hoursRepository) UpsertHours(ctx context.Context, hours []model.ClinicHours) error {
	if len(hours) == 0 {
		return nil
	}

	values := make([]string, 0, len(hours))
	args := make([]interface{}, 0, len(hours)*5)
	for i, h := range hours {
		n := i * 5
		values = append(values, fmt.Sprintf("($%d, $%d, $%d::time, $%d::time, $%d)", n+1, n+2, n+3, n+4, n+5))
		args = append(args, h.ClinicID, h.Weekday, h.OpenTime, h.CloseTime, h.IsClosed)
	}

	query := `
		INSERT INTO clinic_hours (clinic_id, weekday, open_time, close_time, is_closed)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (clinic_id, weekday) DO UPDATE SET
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			is_closed = EXCLUDED.is_closed
	`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert clinic hours: %w", translateError(err))
	}
	return nil
}

func (r *hoursRepository) ListHours(ctx context.Context, clinicID uuid.UUID) ([]model.ClinicHours, error) {
	query := `
		SELECT
			clinic_id, weekday,
			open_time::text AS open_time,
			close_time::text AS close_time,
			is_closed
		FROM clinic_hours
		WHERE clinic_id = $1
		ORDER BY weekday
	`
	var hours []model.ClinicHours
	if err := r.db.SelectContext(ctx, &hours, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list clinic hours: %w", translateError(err))
	}
	return hours, nil
}
