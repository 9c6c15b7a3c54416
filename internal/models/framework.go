package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Framework is a stored copywriting methodology used for retrieval.
type Framework struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Content         string     `json:"content"`
	SourcePath      string     `json:"source_path,omitempty"`
	ContentChecksum string     `json:"content_checksum"`
	ChunkCount      int        `json:"chunk_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Validate checks a framework before it is written.
func (f *Framework) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Content, validation.Required),
	)
}

// FrameworkChunk is one embedded slice of a framework.
type FrameworkChunk struct {
	ID          string    `json:"id"`
	FrameworkID string    `json:"framework_id"`
	ChunkIndex  int       `json:"chunk_index"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChunkMatch is a similarity hit against the chunk table.
type ChunkMatch struct {
	ChunkID       string  `json:"chunk_id"`
	FrameworkID   string  `json:"framework_id"`
	FrameworkName string  `json:"framework_name"`
	Content       string  `json:"content"`
	Similarity    float64 `json:"similarity"`
}
