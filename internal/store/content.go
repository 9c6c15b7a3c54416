package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
)

type contentRow struct {
	ID            string         `db:"id"`
	ClientID      string         `db:"client_id"`
	ProjectID     sql.NullString `db:"project_id"`
	Title         string         `db:"title"`
	AssetType     string         `db:"asset_type"`
	ContentJSON   sql.NullString `db:"content_json"`
	FileURL       sql.NullString `db:"file_url"`
	FileObjectKey sql.NullString `db:"file_object_key"`
	FileSize      sql.NullInt64  `db:"file_size"`
	FileMime      sql.NullString `db:"file_mime"`
	FileName      sql.NullString `db:"file_name"`
	Metadata      string         `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r contentRow) model() models.ContentAsset {
	a := models.ContentAsset{
		ID:        r.ID,
		ClientID:  r.ClientID,
		ProjectID: strPtr(r.ProjectID),
		Title:     r.Title,
		AssetType: models.AssetType(r.AssetType),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	switch {
	case r.ContentJSON.Valid:
		var note models.NoteBody
		decodeJSON(r.ContentJSON.String, &note, "content.content_json", r.ID)
		a.Body.Note = &note
	case r.FileURL.Valid:
		a.Body.File = &models.FileBody{
			URL:       r.FileURL.String,
			ObjectKey: r.FileObjectKey.String,
			Size:      r.FileSize.Int64,
			MimeType:  r.FileMime.String,
			Filename:  r.FileName.String,
		}
	}
	decodeJSON(r.Metadata, &a.Metadata, "content.metadata", r.ID)
	return a
}

// bodyColumns splits a body variant into its column values. Exactly one
// group is non-NULL, matching the table's CHECK constraint.
type bodyColumns struct {
	contentJSON sql.NullString
	contentText string
	fileURL     sql.NullString
	fileKey     sql.NullString
	fileSize    sql.NullInt64
	fileMime    sql.NullString
	fileName    sql.NullString
}

func splitBody(b models.Body) (bodyColumns, error) {
	var cols bodyColumns
	if b.Note != nil {
		raw, err := encodeJSON(b.Note)
		if err != nil {
			return cols, err
		}
		cols.contentJSON = sql.NullString{String: raw, Valid: true}
		cols.contentText = b.PlainText()
	}
	if f := b.File; f != nil {
		cols.fileURL = sql.NullString{String: f.URL, Valid: true}
		cols.fileKey = sql.NullString{String: f.ObjectKey, Valid: f.ObjectKey != ""}
		cols.fileSize = sql.NullInt64{Int64: f.Size, Valid: true}
		cols.fileMime = sql.NullString{String: f.MimeType, Valid: f.MimeType != ""}
		cols.fileName = sql.NullString{String: f.Filename, Valid: f.Filename != ""}
		cols.contentText = f.Filename
	}
	return cols, nil
}

const contentSelect = `SELECT a.id, a.client_id, a.project_id, a.title, a.asset_type, a.content_json,
	a.file_url, a.file_object_key, a.file_size, a.file_mime, a.file_name, a.metadata, a.created_at, a.updated_at
	FROM content_assets a JOIN clients c ON c.id = a.client_id`

// ContentFilter narrows ListContent.
type ContentFilter struct {
	ClientID  string
	ProjectID string
	AssetType models.AssetType
	Query     string
	Limit     int
	Offset    int
}

// CreateContent inserts an asset. The caller validates the body first; the
// CHECK constraint rejects anything that slips through.
func (db *DB) CreateContent(ctx context.Context, a *models.ContentAsset) error {
	cols, err := splitBody(a.Body)
	if err != nil {
		return err
	}
	meta, err := encodeJSON(a.Metadata)
	if err != nil {
		return err
	}
	now := db.now()
	a.ID = newID()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err = db.x.ExecContext(ctx, `
		INSERT INTO content_assets (id, client_id, project_id, title, asset_type, content_json, content_text,
			file_url, file_object_key, file_size, file_mime, file_name, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClientID, nullString(a.ProjectID), a.Title, string(a.AssetType), cols.contentJSON, cols.contentText,
		cols.fileURL, cols.fileKey, cols.fileSize, cols.fileMime, cols.fileName, meta, now, now)
	if isUnique(err) {
		return fmt.Errorf("store: insert content: object key %s: %w", cols.fileKey.String, apperr.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("store: insert content: %w", err)
	}
	return nil
}

// GetContent returns one asset.
func (db *DB) GetContent(ctx context.Context, id string) (*models.ContentAsset, error) {
	var row contentRow
	if err := db.x.GetContext(ctx, &row, contentSelect+` WHERE a.id = ? AND c.deleted_at IS NULL`, id); err != nil {
		return nil, notFound(err, "get content")
	}
	a := row.model()
	return &a, nil
}

// ListContent returns filtered assets, newest first, with the total count.
func (db *DB) ListContent(ctx context.Context, f ContentFilter) ([]models.ContentAsset, int, error) {
	where := []string{"c.deleted_at IS NULL"}
	var args []any
	if f.ClientID != "" {
		where = append(where, "a.client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.ProjectID != "" {
		where = append(where, "a.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.AssetType != "" {
		where = append(where, "a.asset_type = ?")
		args = append(args, string(f.AssetType))
	}
	if f.Query != "" {
		like := likePattern(f.Query)
		where = append(where, `(a.title LIKE ? ESCAPE '\' OR a.content_text LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.x.GetContext(ctx, &total,
		`SELECT count(*) FROM content_assets a JOIN clients c ON c.id = a.client_id WHERE `+cond, args...); err != nil {
		return nil, 0, fmt.Errorf("store: count content: %w", err)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	var rows []contentRow
	err := db.x.SelectContext(ctx, &rows,
		contentSelect+` WHERE `+cond+` ORDER BY a.updated_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list content: %w", err)
	}
	out := make([]models.ContentAsset, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, total, nil
}

// UpdateContent rewrites an asset's fields, including switching body variant.
func (db *DB) UpdateContent(ctx context.Context, a *models.ContentAsset) error {
	cols, err := splitBody(a.Body)
	if err != nil {
		return err
	}
	meta, err := encodeJSON(a.Metadata)
	if err != nil {
		return err
	}
	a.UpdatedAt = db.now()
	res, err := db.x.ExecContext(ctx, `
		UPDATE content_assets SET client_id = ?, project_id = ?, title = ?, asset_type = ?,
			content_json = ?, content_text = ?, file_url = ?, file_object_key = ?, file_size = ?,
			file_mime = ?, file_name = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		a.ClientID, nullString(a.ProjectID), a.Title, string(a.AssetType), cols.contentJSON, cols.contentText,
		cols.fileURL, cols.fileKey, cols.fileSize, cols.fileMime, cols.fileName, meta, a.UpdatedAt, a.ID)
	if isUnique(err) {
		return fmt.Errorf("store: update content: object key %s: %w", cols.fileKey.String, apperr.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("store: update content: %w", err)
	}
	return requireRow(res, "update content")
}

// DeleteContent removes an asset.
func (db *DB) DeleteContent(ctx context.Context, id string) error {
	res, err := db.x.ExecContext(ctx, `DELETE FROM content_assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete content: %w", err)
	}
	return requireRow(res, "delete content")
}

// BulkDeleteContent deletes every listed asset and reports how many existed.
func (db *DB) BulkDeleteContent(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM content_assets WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("store: bulk delete: %w", err)
	}
	res, err := db.x.ExecContext(ctx, db.x.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("store: bulk delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// BulkAssignProject sets (or clears, when projectID is nil) the project of
// every listed asset.
func (db *DB) BulkAssignProject(ctx context.Context, ids []string, projectID *string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		if projectID != nil {
			p, err := getProject(ctx, tx, *projectID)
			if err != nil {
				return err
			}
			query, args, err := sqlx.In(`SELECT id FROM content_assets WHERE id IN (?) AND client_id <> ? ORDER BY id`, ids, p.ClientID)
			if err != nil {
				return fmt.Errorf("store: bulk assign: %w", err)
			}
			var foreign []string
			if err := tx.SelectContext(ctx, &foreign, tx.Rebind(query), args...); err != nil {
				return fmt.Errorf("store: bulk assign: %w", err)
			}
			if len(foreign) > 0 {
				return apperr.Invalid("ids", "project belongs to another client than "+strings.Join(foreign, ", "))
			}
		}
		query, args, err := sqlx.In(`UPDATE content_assets SET project_id = ?, updated_at = ? WHERE id IN (?)`,
			nullString(projectID), db.now(), ids)
		if err != nil {
			return fmt.Errorf("store: bulk assign: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return fmt.Errorf("store: bulk assign: %w", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return int(n), err
}

// ContentEntities lists assets of live clients as mention candidates.
func (db *DB) ContentEntities(ctx context.Context) ([]models.Entity, error) {
	var out []models.Entity
	err := db.x.SelectContext(ctx, &out, `
		SELECT a.id, a.title AS name FROM content_assets a JOIN clients c ON c.id = a.client_id
		WHERE c.deleted_at IS NULL ORDER BY a.title`)
	if err != nil {
		return nil, fmt.Errorf("store: content entities: %w", err)
	}
	return out, nil
}
