package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/starford/agencyhub/internal/models"
)

type chatRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	EntryCount int       `db:"entry_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type entryRow struct {
	ID                string         `db:"id"`
	ChatID            sql.NullString `db:"chat_id"`
	Content           string         `db:"content"`
	MentionedClients  string         `db:"mentioned_clients"`
	MentionedProjects string         `db:"mentioned_projects"`
	MentionedContent  string         `db:"mentioned_content"`
	Tags              string         `db:"tags"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r entryRow) model() models.JournalEntry {
	e := models.JournalEntry{
		ID:                r.ID,
		ChatID:            strPtr(r.ChatID),
		Content:           r.Content,
		MentionedClients:  []string{},
		MentionedProjects: []string{},
		MentionedContent:  []string{},
		Tags:              []string{},
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
	decodeJSON(r.MentionedClients, &e.MentionedClients, "journal.mentioned_clients", r.ID)
	decodeJSON(r.MentionedProjects, &e.MentionedProjects, "journal.mentioned_projects", r.ID)
	decodeJSON(r.MentionedContent, &e.MentionedContent, "journal.mentioned_content", r.ID)
	decodeJSON(r.Tags, &e.Tags, "journal.tags", r.ID)
	return e
}

// JournalFilter narrows ListJournal. Mention filters match entries whose
// mention arrays contain the id.
type JournalFilter struct {
	ChatID    string
	Tag       string
	ClientID  string
	ProjectID string
	ContentID string
	Query     string
	Limit     int
	Offset    int
}

// CreateChat inserts a journal chat.
func (db *DB) CreateChat(ctx context.Context, c *models.JournalChat) error {
	now := db.now()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := db.x.ExecContext(ctx,
		`INSERT INTO journal_chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, now, now)
	if err != nil {
		return fmt.Errorf("store: insert chat: %w", err)
	}
	return nil
}

// GetChat returns one chat with its entry count.
func (db *DB) GetChat(ctx context.Context, id string) (*models.JournalChat, error) {
	var row chatRow
	err := db.x.GetContext(ctx, &row, `
		SELECT ch.id, ch.title, ch.created_at, ch.updated_at,
			(SELECT count(*) FROM journal_entries e WHERE e.chat_id = ch.id) AS entry_count
		FROM journal_chats ch WHERE ch.id = ?`, id)
	if err != nil {
		return nil, notFound(err, "get chat")
	}
	return &models.JournalChat{ID: row.ID, Title: row.Title, EntryCount: row.EntryCount,
		CreatedAt: row.CreatedAt.UTC(), UpdatedAt: row.UpdatedAt.UTC()}, nil
}

// ListChats returns all chats, most recently active first.
func (db *DB) ListChats(ctx context.Context) ([]models.JournalChat, error) {
	var rows []chatRow
	err := db.x.SelectContext(ctx, &rows, `
		SELECT ch.id, ch.title, ch.created_at, ch.updated_at,
			(SELECT count(*) FROM journal_entries e WHERE e.chat_id = ch.id) AS entry_count
		FROM journal_chats ch ORDER BY ch.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list chats: %w", err)
	}
	out := make([]models.JournalChat, len(rows))
	for i, r := range rows {
		out[i] = models.JournalChat{ID: r.ID, Title: r.Title, EntryCount: r.EntryCount,
			CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
	}
	return out, nil
}

// RenameChat updates a chat title.
func (db *DB) RenameChat(ctx context.Context, id, title string) error {
	res, err := db.x.ExecContext(ctx,
		`UPDATE journal_chats SET title = ?, updated_at = ? WHERE id = ?`, title, db.now(), id)
	if err != nil {
		return fmt.Errorf("store: rename chat: %w", err)
	}
	return requireRow(res, "rename chat")
}

// DeleteChat removes a chat. Its entries stay in the journal, detached.
func (db *DB) DeleteChat(ctx context.Context, id string) error {
	res, err := db.x.ExecContext(ctx, `DELETE FROM journal_chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete chat: %w", err)
	}
	return requireRow(res, "delete chat")
}

// SaveEntry inserts or replaces a journal entry. The mention and tag arrays
// are written exactly as given; the journal service computes them.
func (db *DB) SaveEntry(ctx context.Context, e *models.JournalEntry) error {
	clients, err := encodeJSON(e.MentionedClients)
	if err != nil {
		return err
	}
	projects, err := encodeJSON(e.MentionedProjects)
	if err != nil {
		return err
	}
	content, err := encodeJSON(e.MentionedContent)
	if err != nil {
		return err
	}
	tags, err := encodeJSON(e.Tags)
	if err != nil {
		return err
	}
	now := db.now()
	id, created := e.ID, e.CreatedAt
	if id == "" {
		id, created = newID(), now
	}
	err = db.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO journal_entries (id, chat_id, content, mentioned_clients, mentioned_projects,
			mentioned_content, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			chat_id            = excluded.chat_id,
			content            = excluded.content,
			mentioned_clients  = excluded.mentioned_clients,
			mentioned_projects = excluded.mentioned_projects,
			mentioned_content  = excluded.mentioned_content,
			tags               = excluded.tags,
			updated_at         = excluded.updated_at`,
			id, nullString(e.ChatID), e.Content, clients, projects, content, tags, created, now)
		if err != nil {
			return fmt.Errorf("store: save entry: %w", err)
		}
		if e.ChatID == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE journal_chats SET updated_at = ? WHERE id = ?`, now, *e.ChatID); err != nil {
			return fmt.Errorf("store: touch chat: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.ID, e.CreatedAt, e.UpdatedAt = id, created, now
	return nil
}

// GetEntry returns one journal entry.
func (db *DB) GetEntry(ctx context.Context, id string) (*models.JournalEntry, error) {
	var row entryRow
	if err := db.x.GetContext(ctx, &row, `SELECT * FROM journal_entries WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "get entry")
	}
	e := row.model()
	return &e, nil
}

// ListJournal returns entries newest first, with the total count.
func (db *DB) ListJournal(ctx context.Context, f JournalFilter) ([]models.JournalEntry, int, error) {
	var where []string
	var args []any
	if f.ChatID != "" {
		where = append(where, "chat_id = ?")
		args = append(args, f.ChatID)
	}
	contains := func(column, v string) {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(`+column+`) WHERE value = ?)`)
		args = append(args, v)
	}
	if f.Tag != "" {
		contains("tags", strings.ToLower(strings.TrimPrefix(f.Tag, "#")))
	}
	if f.ClientID != "" {
		contains("mentioned_clients", f.ClientID)
	}
	if f.ProjectID != "" {
		contains("mentioned_projects", f.ProjectID)
	}
	if f.ContentID != "" {
		contains("mentioned_content", f.ContentID)
	}
	if f.Query != "" {
		where = append(where, `content LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Query))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int
	if err := db.x.GetContext(ctx, &total, `SELECT count(*) FROM journal_entries WHERE `+cond, args...); err != nil {
		return nil, 0, fmt.Errorf("store: count journal: %w", err)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	var rows []entryRow
	err := db.x.SelectContext(ctx, &rows,
		`SELECT * FROM journal_entries WHERE `+cond+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list journal: %w", err)
	}
	out := make([]models.JournalEntry, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, total, nil
}

// DeleteEntry removes a journal entry.
func (db *DB) DeleteEntry(ctx context.Context, id string) error {
	res, err := db.x.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete entry: %w", err)
	}
	return requireRow(res, "delete entry")
}
