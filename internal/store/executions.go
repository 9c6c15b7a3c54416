package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
)

type executionRow struct {
	ID           string         `db:"id"`
	ModelID      string         `db:"model_id"`
	Provider     string         `db:"provider"`
	InputTokens  int            `db:"input_tokens"`
	OutputTokens int            `db:"output_tokens"`
	CostUSD      float64        `db:"cost_usd"`
	ClientID     sql.NullString `db:"client_id"`
	TaskType     string         `db:"task_type"`
	AssetID      sql.NullString `db:"asset_id"`
	Succeeded    bool           `db:"succeeded"`
	Error        string         `db:"error"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r executionRow) model() models.AIExecution {
	return models.AIExecution{
		ID:           r.ID,
		ModelID:      r.ModelID,
		Provider:     r.Provider,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		CostUSD:      r.CostUSD,
		ClientID:     strPtr(r.ClientID),
		TaskType:     r.TaskType,
		AssetID:      strPtr(r.AssetID),
		Succeeded:    r.Succeeded,
		Error:        r.Error,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// RecordExecution appends one model call to the log.
func (db *DB) RecordExecution(ctx context.Context, e *models.AIExecution) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = db.now()
	}
	_, err := db.x.ExecContext(ctx, `
		INSERT INTO ai_executions (id, model_id, provider, input_tokens, output_tokens, cost_usd,
			client_id, task_type, asset_id, succeeded, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ModelID, e.Provider, e.InputTokens, e.OutputTokens, e.CostUSD,
		nullString(e.ClientID), e.TaskType, nullString(e.AssetID), e.Succeeded, e.Error, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: record execution: %w", err)
	}
	return nil
}

// LinkExecutionAsset records the asset an execution's output was saved as.
func (db *DB) LinkExecutionAsset(ctx context.Context, executionID, assetID string) error {
	res, err := db.x.ExecContext(ctx, `UPDATE ai_executions SET asset_id = ? WHERE id = ?`, assetID, executionID)
	if err != nil {
		return fmt.Errorf("store: link execution: %w", err)
	}
	return requireRow(res, "link execution")
}

// SpendGroup selects the rollup dimension.
type SpendGroup string

const (
	SpendByModel    SpendGroup = "model"
	SpendByClient   SpendGroup = "client"
	SpendByTaskType SpendGroup = "task_type"
	SpendByDay      SpendGroup = "day"
)

// Spend sums executions in [from, to) by group. Zero times leave that side open.
func (db *DB) Spend(ctx context.Context, group SpendGroup, from, to time.Time) ([]models.SpendRow, error) {
	var key, label, join string
	switch group {
	case SpendByModel, "":
		key, label = "e.model_id", "e.model_id"
	case SpendByClient:
		key = "COALESCE(e.client_id, '')"
		label = "COALESCE(c.name, 'Unassigned')"
		join = "LEFT JOIN clients c ON c.id = e.client_id"
	case SpendByTaskType:
		key, label = "e.task_type", "e.task_type"
	case SpendByDay:
		key, label = "substr(e.created_at, 1, 10)", "substr(e.created_at, 1, 10)"
	default:
		return nil, apperr.Invalid("group_by", "must be model, client, task_type or day")
	}

	where := "1=1"
	var args []any
	if !from.IsZero() {
		where += " AND e.created_at >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		where += " AND e.created_at < ?"
		args = append(args, to.UTC())
	}

	var out []models.SpendRow
	err := db.x.SelectContext(ctx, &out, `
		SELECT `+key+` AS group_key, `+label+` AS label, count(*) AS calls,
		       COALESCE(sum(e.input_tokens), 0) AS input_tokens,
		       COALESCE(sum(e.output_tokens), 0) AS output_tokens,
		       COALESCE(sum(e.cost_usd), 0) AS cost_usd
		FROM ai_executions e `+join+`
		WHERE `+where+`
		GROUP BY group_key
		ORDER BY cost_usd DESC, group_key`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: spend: %w", err)
	}
	if out == nil {
		out = []models.SpendRow{}
	}
	return out, nil
}

// RecentExecutions returns the latest executions, newest first.
func (db *DB) RecentExecutions(ctx context.Context, limit int) ([]models.AIExecution, error) {
	if limit <= 0 {
		limit = 20
	}
	var raw []executionRow
	if err := db.x.SelectContext(ctx, &raw,
		`SELECT * FROM ai_executions ORDER BY created_at DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("store: recent executions: %w", err)
	}
	out := make([]models.AIExecution, len(raw))
	for i, r := range raw {
		out[i] = r.model()
	}
	return out, nil
}
