// Package store implements the authoritative data store on PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dispatchlab/fieldsched/core/model"
)

// PostgresStore is the production store backed by pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at dsn.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Engineers loads all active engineers with hours and time off resolved.
func (s *PostgresStore) Engineers(ctx context.Context) ([]model.Engineer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, base_lat, base_lng, region, max_jobs_per_day,
		       service_radius_km, hours
		FROM engineers
		WHERE active`)
	if err != nil {
		return nil, fmt.Errorf("query engineers: %w", err)
	}
	defer rows.Close()

	var out []model.Engineer
	byID := make(map[string]int)
	for rows.Next() {
		var e model.Engineer
		var hoursRaw []byte
		if err := rows.Scan(&e.ID, &e.Name, &e.Base.Lat, &e.Base.Lng, &e.Region,
			&e.MaxJobsPerDay, &e.ServiceRadiusKm, &hoursRaw); err != nil {
			return nil, err
		}
		hours, err := decodeHours(hoursRaw)
		if err != nil {
			return nil, fmt.Errorf("engineer %s: %w", e.ID, err)
		}
		e.Hours = hours
		byID[e.ID] = len(out)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	toRows, err := s.pool.Query(ctx, `
		SELECT engineer_id, from_date, to_date
		FROM engineer_time_off
		WHERE to_date >= CURRENT_DATE AND approved`)
	if err != nil {
		return nil, fmt.Errorf("query time off: %w", err)
	}
	defer toRows.Close()
	for toRows.Next() {
		var engID string
		var r model.TimeOffRange
		if err := toRows.Scan(&engID, &r.From, &r.To); err != nil {
			return nil, err
		}
		if i, ok := byID[engID]; ok {
			out[i].TimeOff = append(out[i].TimeOff, r)
		}
	}
	return out, toRows.Err()
}

// decodeHours parses the jsonb hours column: weekday number -> [start, end]
// minutes from midnight, e.g. {"1": [480, 1020]}.
func decodeHours(raw []byte) (map[time.Weekday]model.DayWindow, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string][2]int
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode hours: %w", err)
	}
	out := make(map[time.Weekday]model.DayWindow, len(m))
	for k, v := range m {
		day, err := strconv.Atoi(k)
		if err != nil || day < 0 || day > 6 {
			return nil, fmt.Errorf("decode hours: bad weekday %q", k)
		}
		out[time.Weekday(day)] = model.DayWindow{StartMin: v[0], EndMin: v[1]}
	}
	return out, nil
}

// PendingJobs returns jobs awaiting assignment.
func (s *PostgresStore) PendingJobs(ctx context.Context) ([]model.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_ref, job_type, site_lat, site_lng, region, duration_minutes
		FROM jobs
		WHERE status = 'pending'
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query pending jobs: %w", err)
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		var j model.Job
		if err := rows.Scan(&j.ID, &j.ClientRef, &j.Type, &j.Site.Lat, &j.Site.Lng,
			&j.Region, &j.DurationMinutes); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// DayLoads aggregates committed jobs per engineer-day over [from, to].
func (s *PostgresStore) DayLoads(ctx context.Context, from, to time.Time) (map[model.DayKey]model.DayLoad, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT engineer_id, scheduled_date, COUNT(*), COALESCE(SUM(duration_minutes), 0)
		FROM jobs
		WHERE status IN ('scheduled', 'offered')
		  AND scheduled_date BETWEEN $1 AND $2
		GROUP BY engineer_id, scheduled_date`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("query day loads: %w", err)
	}
	defer rows.Close()

	out := make(map[model.DayKey]model.DayLoad)
	for rows.Next() {
		var engID string
		var date time.Time
		var load model.DayLoad
		if err := rows.Scan(&engID, &date, &load.Jobs, &load.Minutes); err != nil {
			return nil, err
		}
		out[model.NewDayKey(engID, date)] = load
	}
	return out, rows.Err()
}

// CreateOffer persists a sent offer.
func (s *PostgresStore) CreateOffer(ctx context.Context, offer model.Offer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO job_offers (id, job_id, engineer_id, offered_date, time_window, channel, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', NOW())`,
		offer.ID, offer.JobID, offer.EngineerID, offer.Date, offer.TimeWindow, offer.Channel)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// UpdateJobSchedule books a job directly onto an engineer-day.
func (s *PostgresStore) UpdateJobSchedule(ctx context.Context, jobID, engineerID string, date time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET engineer_id = $2, scheduled_date = $3, status = 'scheduled'
		WHERE id = $1`,
		jobID, engineerID, date)
	if err != nil {
		return fmt.Errorf("update job schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job schedule: job %s not found", jobID)
	}
	return nil
}

// AppendActivity appends an activity-log entry.
func (s *PostgresStore) AppendActivity(ctx context.Context, entry model.ActivityEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activity_log (id, job_id, engineer_id, kind, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.JobID, entry.EngineerID, entry.Kind, entry.Detail, entry.Time)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}
