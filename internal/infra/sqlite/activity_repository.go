package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

const dateLayout = "2006-01-02"

// ActivityRepository stores logged activities and recurring templates.
// Dates are kept as YYYY-MM-DD text and read back in loc.
type ActivityRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewActivityRepository(db *sql.DB, loc *time.Location) *ActivityRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityRepository{db: db, loc: loc}
}

func (r *ActivityRepository) InitTable(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			occurred_on TEXT NOT NULL,
			co2_impact REAL NOT NULL DEFAULT 0,
			water_impact REAL NOT NULL DEFAULT 0,
			electricity_impact REAL NOT NULL DEFAULT 0,
			source_recurring_id TEXT NOT NULL DEFAULT '',
			created_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_user_date ON activities (user_id, occurred_on)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_occurrence
			ON activities (source_recurring_id, occurred_on) WHERE source_recurring_id != ''`,
		`CREATE TABLE IF NOT EXISTS recurring_activities (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			start_on TEXT NOT NULL,
			co2_impact REAL NOT NULL DEFAULT 0,
			water_impact REAL NOT NULL DEFAULT 0,
			electricity_impact REAL NOT NULL DEFAULT 0,
			times_per_week INTEGER NOT NULL DEFAULT 7,
			weeks_per_year INTEGER NOT NULL DEFAULT 52,
			last_generated_on TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init activity tables: %w", err)
		}
	}
	return nil
}

func (r *ActivityRepository) InsertActivity(ctx context.Context, record *domain.ActivityRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	query := `
		INSERT INTO activities (id, user_id, occurred_on, co2_impact, water_impact, electricity_impact, source_recurring_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.UserID, record.OccurredOn.Format(dateLayout),
		record.Co2Impact, record.WaterImpact, record.ElectricityImpact,
		record.SourceRecurringID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// FetchActivities returns the user's records with occurred_on in [from, to).
// Materialized occurrences carry their template's recurrence.
func (r *ActivityRepository) FetchActivities(ctx context.Context, userID string, from, to time.Time) ([]domain.ActivityRecord, error) {
	query := `
		SELECT a.id, a.user_id, a.occurred_on, a.co2_impact, a.water_impact, a.electricity_impact,
			a.source_recurring_id, COALESCE(t.times_per_week, 0), COALESCE(t.weeks_per_year, 0)
		FROM activities a
		LEFT JOIN recurring_activities t ON t.id = a.source_recurring_id
		WHERE a.user_id = ? AND a.occurred_on >= ? AND a.occurred_on < ?
		ORDER BY a.occurred_on, a.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, from.In(r.loc).Format(dateLayout), to.In(r.loc).Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("fetch activities: %w", err)
	}
	defer rows.Close()

	var records []domain.ActivityRecord
	for rows.Next() {
		var rec domain.ActivityRecord
		var occurredOn string
		var timesPerWeek, weeksPerYear int
		if err := rows.Scan(&rec.ID, &rec.UserID, &occurredOn, &rec.Co2Impact, &rec.WaterImpact, &rec.ElectricityImpact,
			&rec.SourceRecurringID, &timesPerWeek, &weeksPerYear); err != nil {
			return nil, err
		}
		rec.OccurredOn, err = time.ParseInLocation(dateLayout, occurredOn, r.loc)
		if err != nil {
			return nil, err
		}
		if rec.SourceRecurringID != "" {
			rec.Recurrence = &domain.Recurrence{TimesPerWeek: timesPerWeek, WeeksPerYear: weeksPerYear}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *ActivityRepository) InsertRecurringTemplate(ctx context.Context, tmpl *domain.RecurringTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	query := `
		INSERT INTO recurring_activities (id, user_id, start_on, co2_impact, water_impact, electricity_impact, times_per_week, weeks_per_year, last_generated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.UserID, tmpl.StartOn.Format(dateLayout),
		tmpl.Co2Impact, tmpl.WaterImpact, tmpl.ElectricityImpact,
		tmpl.Recurrence.TimesPerWeek, tmpl.Recurrence.WeeksPerYear, formatOptionalDate(tmpl.LastGeneratedOn))
	if err != nil {
		return fmt.Errorf("insert recurring activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListRecurringDue(ctx context.Context, day time.Time) ([]*domain.RecurringTemplate, error) {
	dayStr := day.In(r.loc).Format(dateLayout)
	query := `
		SELECT id, user_id, start_on, co2_impact, water_impact, electricity_impact, times_per_week, weeks_per_year, last_generated_on
		FROM recurring_activities
		WHERE start_on <= ? AND (last_generated_on = '' OR last_generated_on < ?)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, dayStr, dayStr)
	if err != nil {
		return nil, fmt.Errorf("list recurring activities: %w", err)
	}
	defer rows.Close()

	var templates []*domain.RecurringTemplate
	for rows.Next() {
		var tmpl domain.RecurringTemplate
		var startOn, lastGenerated string
		if err := rows.Scan(&tmpl.ID, &tmpl.UserID, &startOn, &tmpl.Co2Impact, &tmpl.WaterImpact, &tmpl.ElectricityImpact,
			&tmpl.Recurrence.TimesPerWeek, &tmpl.Recurrence.WeeksPerYear, &lastGenerated); err != nil {
			return nil, err
		}
		tmpl.StartOn, err = time.ParseInLocation(dateLayout, startOn, r.loc)
		if err != nil {
			return nil, err
		}
		if lastGenerated != "" {
			tmpl.LastGeneratedOn, err = time.ParseInLocation(dateLayout, lastGenerated, r.loc)
			if err != nil {
				return nil, err
			}
		}
		templates = append(templates, &tmpl)
	}
	return templates, rows.Err()
}

// SaveOccurrences writes occurrences and advances the template in one
// transaction. An occurrence already stored for its day is skipped.
func (r *ActivityRepository) SaveOccurrences(ctx context.Context, tmpl *domain.RecurringTemplate, occurrences []domain.ActivityRecord, through time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT OR IGNORE INTO activities (id, user_id, occurred_on, co2_impact, water_impact, electricity_impact, source_recurring_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	createdAt := time.Now().UTC().Format(time.RFC3339)
	for i := range occurrences {
		occ := &occurrences[i]
		if occ.ID == "" {
			occ.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, insert,
			occ.ID, occ.UserID, occ.OccurredOn.Format(dateLayout),
			occ.Co2Impact, occ.WaterImpact, occ.ElectricityImpact,
			tmpl.ID, createdAt); err != nil {
			return fmt.Errorf("insert occurrence: %w", err)
		}
	}

	throughStr := through.In(r.loc).Format(dateLayout)
	if _, err := tx.ExecContext(ctx, `UPDATE recurring_activities SET last_generated_on = ? WHERE id = ?`, throughStr, tmpl.ID); err != nil {
		return fmt.Errorf("advance recurring activity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	tmpl.LastGeneratedOn = through
	return nil
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
