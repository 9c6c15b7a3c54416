package models

import "time"

// JournalChat groups journal entries into a folder.
type JournalChat struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	EntryCount int       `json:"entry_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JournalEntry is a quick capture note. The mention and tag slices are always
// derived from Content by the mention parser on write.
type JournalEntry struct {
	ID                string    `json:"id"`
	ChatID            *string   `json:"chat_id,omitempty"`
	Content           string    `json:"content"`
	MentionedClients  []string  `json:"mentioned_clients"`
	MentionedProjects []string  `json:"mentioned_projects"`
	MentionedContent  []string  `json:"mentioned_content"`
	Tags              []string  `json:"tags"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
