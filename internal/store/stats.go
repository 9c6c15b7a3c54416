package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/agencyhub/internal/models"
)

// CountRow is one bucket of a grouped count.
type CountRow struct {
	Key   string `db:"k" json:"key"`
	Count int    `db:"n" json:"count"`
}

func (db *DB) countBy(ctx context.Context, query string, args ...any) (map[string]int, error) {
	var rows []CountRow
	if err := db.x.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

// ClientCounts groups live clients by questionnaire status.
func (db *DB) ClientCounts(ctx context.Context) (map[string]int, error) {
	out, err := db.countBy(ctx, `
		SELECT questionnaire_status AS k, count(*) AS n FROM clients
		WHERE deleted_at IS NULL GROUP BY questionnaire_status`)
	if err != nil {
		return nil, fmt.Errorf("store: client counts: %w", err)
	}
	return out, nil
}

// ProjectCounts groups projects of live clients by status.
func (db *DB) ProjectCounts(ctx context.Context) (map[string]int, error) {
	out, err := db.countBy(ctx, `
		SELECT p.status AS k, count(*) AS n FROM projects p JOIN clients c ON c.id = p.client_id
		WHERE c.deleted_at IS NULL GROUP BY p.status`)
	if err != nil {
		return nil, fmt.Errorf("store: project counts: %w", err)
	}
	return out, nil
}

// ContentCounts groups assets of live clients by type.
func (db *DB) ContentCounts(ctx context.Context) (map[string]int, error) {
	out, err := db.countBy(ctx, `
		SELECT a.asset_type AS k, count(*) AS n FROM content_assets a JOIN clients c ON c.id = a.client_id
		WHERE c.deleted_at IS NULL GROUP BY a.asset_type`)
	if err != nil {
		return nil, fmt.Errorf("store: content counts: %w", err)
	}
	return out, nil
}

// UpcomingProjects returns unfinished projects due before the cutoff,
// soonest first. Overdue projects are included.
func (db *DB) UpcomingProjects(ctx context.Context, before time.Time, limit int) ([]models.Project, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []projectRow
	err := db.x.SelectContext(ctx, &rows, projectSelect+`
		WHERE c.deleted_at IS NULL AND p.status <> 'done' AND p.due_date IS NOT NULL AND p.due_date < ?
		ORDER BY p.due_date LIMIT ?`, before.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("store: upcoming projects: %w", err)
	}
	out := make([]models.Project, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}
