package models

import "time"

// AIExecution is one append-only row of the model call log.
type AIExecution struct {
	ID           string    `json:"id"`
	ModelID      string    `json:"model_id"`
	Provider     string    `json:"provider"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	ClientID     *string   `json:"client_id,omitempty"`
	TaskType     string    `json:"task_type"`
	AssetID      *string   `json:"asset_id,omitempty"`
	Succeeded    bool      `json:"succeeded"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SpendRow is one group of a spend rollup.
type SpendRow struct {
	Key          string  `json:"key" db:"group_key"`
	Label        string  `json:"label" db:"label"`
	Calls        int     `json:"calls" db:"calls"`
	InputTokens  int     `json:"input_tokens" db:"input_tokens"`
	OutputTokens int     `json:"output_tokens" db:"output_tokens"`
	CostUSD      float64 `json:"cost_usd" db:"cost_usd"`
}
