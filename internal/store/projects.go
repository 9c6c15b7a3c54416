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

type projectRow struct {
	ID          string       `db:"id"`
	ClientID    string       `db:"client_id"`
	ClientName  string       `db:"client_name"`
	Name        string       `db:"name"`
	Description string       `db:"description"`
	Status      string       `db:"status"`
	Priority    string       `db:"priority"`
	DueDate     sql.NullTime `db:"due_date"`
	Position    int          `db:"position"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (r projectRow) model() models.Project {
	return models.Project{
		ID:          r.ID,
		ClientID:    r.ClientID,
		ClientName:  r.ClientName,
		Name:        r.Name,
		Description: r.Description,
		Status:      models.ProjectStatus(r.Status),
		Priority:    models.Priority(r.Priority),
		DueDate:     timePtr(r.DueDate),
		Position:    r.Position,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

const projectSelect = `SELECT p.id, p.client_id, c.name AS client_name, p.name, p.description, p.status,
	p.priority, p.due_date, p.position, p.created_at, p.updated_at
	FROM projects p JOIN clients c ON c.id = p.client_id`

// ProjectFilter narrows project listings. Sort is one of position, due_date,
// priority, updated_at or name; the default is status then position.
type ProjectFilter struct {
	ClientID string
	Status   models.ProjectStatus
	Priority models.Priority
	Query    string
	Sort     string
	Limit    int
	Offset   int
}

func (f ProjectFilter) where() (string, []any) {
	where := []string{"c.deleted_at IS NULL"}
	var args []any
	if f.ClientID != "" {
		where = append(where, "p.client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		where = append(where, "p.priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.Query != "" {
		like := likePattern(f.Query)
		where = append(where, `(p.name LIKE ? ESCAPE '\' OR p.description LIKE ? ESCAPE '\' OR c.name LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	return strings.Join(where, " AND "), args
}

const statusOrder = `CASE p.status WHEN 'backlog' THEN 0 WHEN 'in_progress' THEN 1 WHEN 'in_review' THEN 2 ELSE 3 END`

func (f ProjectFilter) orderBy() string {
	switch f.Sort {
	case "due_date":
		return "p.due_date IS NULL, p.due_date, p.name"
	case "priority":
		return "CASE p.priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, p.due_date IS NULL, p.due_date"
	case "updated_at":
		return "p.updated_at DESC"
	case "name":
		return "p.name COLLATE NOCASE"
	}
	return statusOrder + ", p.position"
}

// CreateProject inserts p at the bottom of its status column.
func (db *DB) CreateProject(ctx context.Context, p *models.Project) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getClient(ctx, tx, p.ClientID); err != nil {
			return err
		}
		var n int
		if err := tx.GetContext(ctx, &n, `
			SELECT count(*) FROM projects p JOIN clients c ON c.id = p.client_id
			WHERE p.status = ? AND c.deleted_at IS NULL`, string(p.Status)); err != nil {
			return fmt.Errorf("store: count column: %w", err)
		}
		now := db.now()
		p.ID = newID()
		p.Position = n
		p.CreatedAt, p.UpdatedAt = now, now
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, client_id, name, description, status, priority, due_date, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ClientID, p.Name, p.Description, string(p.Status), string(p.Priority),
			nullTime(p.DueDate), p.Position, now, now)
		if err != nil {
			return fmt.Errorf("store: insert project: %w", err)
		}
		return nil
	})
}

// GetProject returns one project with its client name.
func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return getProject(ctx, db.x, id)
}

func getProject(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Project, error) {
	var row projectRow
	if err := sqlx.GetContext(ctx, q, &row, projectSelect+` WHERE p.id = ?`, id); err != nil {
		return nil, notFound(err, "get project")
	}
	p := row.model()
	return &p, nil
}

// ListProjects returns filtered projects and the total match count.
func (db *DB) ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, int, error) {
	cond, args := f.where()
	var total int
	if err := db.x.GetContext(ctx, &total,
		`SELECT count(*) FROM projects p JOIN clients c ON c.id = p.client_id WHERE `+cond, args...); err != nil {
		return nil, 0, fmt.Errorf("store: count projects: %w", err)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	var rows []projectRow
	err := db.x.SelectContext(ctx, &rows,
		projectSelect+` WHERE `+cond+` ORDER BY `+f.orderBy()+` LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list projects: %w", err)
	}
	out := make([]models.Project, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, total, nil
}

// UpdateProject writes p's editable fields. A status change moves the project
// to the bottom of the new column and closes the gap in the old one.
func (db *DB) UpdateProject(ctx context.Context, p *models.Project) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := getProject(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if p.ClientID != cur.ClientID {
			if _, err := getClient(ctx, tx, p.ClientID); err != nil {
				return err
			}
		}
		p.UpdatedAt = db.now()
		_, err = tx.ExecContext(ctx, `
			UPDATE projects SET client_id = ?, name = ?, description = ?, priority = ?, due_date = ?, updated_at = ?
			WHERE id = ?`,
			p.ClientID, p.Name, p.Description, string(p.Priority), nullTime(p.DueDate), p.UpdatedAt, p.ID)
		if err != nil {
			return fmt.Errorf("store: update project: %w", err)
		}
		if p.Status != cur.Status {
			if err := moveTx(ctx, tx, cur, p.Status, -1, p.UpdatedAt); err != nil {
				return err
			}
		}
		updated, err := getProject(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		*p = *updated
		return nil
	})
}

// DeleteProject removes a project and renumbers its former column.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := getProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete project: %w", err)
		}
		ids, err := columnIDs(ctx, tx, cur.Status, "")
		if err != nil {
			return err
		}
		return renumber(ctx, tx, cur.Status, ids, db.now())
	})
}

// MoveProject places a project at index toIndex of column toStatus and
// renumbers both affected columns densely. A negative or too-large index
// appends. Either everything is written or nothing is.
func (db *DB) MoveProject(ctx context.Context, id string, toStatus models.ProjectStatus, toIndex int) error {
	if !toStatus.Valid() {
		return apperr.Invalid("to_status", "unknown status")
	}
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := getProject(ctx, tx, id)
		if err != nil {
			return err
		}
		return moveTx(ctx, tx, cur, toStatus, toIndex, db.now())
	})
}

func moveTx(ctx context.Context, tx *sqlx.Tx, p *models.Project, to models.ProjectStatus, index int, now time.Time) error {
	target, err := columnIDs(ctx, tx, to, p.ID)
	if err != nil {
		return err
	}
	if index < 0 || index > len(target) {
		index = len(target)
	}
	target = append(target[:index], append([]string{p.ID}, target[index:]...)...)
	if err := renumber(ctx, tx, to, target, now); err != nil {
		return err
	}
	if p.Status == to {
		return nil
	}
	source, err := columnIDs(ctx, tx, p.Status, p.ID)
	if err != nil {
		return err
	}
	return renumber(ctx, tx, p.Status, source, now)
}

// columnIDs lists the visible project ids of a column in position order,
// leaving out skip. Projects of soft-deleted clients are not on the board and
// do not take a position.
func columnIDs(ctx context.Context, tx *sqlx.Tx, status models.ProjectStatus, skip string) ([]string, error) {
	var ids []string
	err := tx.SelectContext(ctx, &ids, `
		SELECT p.id FROM projects p JOIN clients c ON c.id = p.client_id
		WHERE p.status = ? AND p.id <> ? AND c.deleted_at IS NULL
		ORDER BY p.position, p.created_at`, string(status), skip)
	if err != nil {
		return nil, fmt.Errorf("store: column %s: %w", status, err)
	}
	return ids, nil
}

// renumberColumns closes the gaps left in every column, e.g. after a client's
// projects drop off the board.
func renumberColumns(ctx context.Context, tx *sqlx.Tx, now time.Time) error {
	for _, status := range models.ProjectStatuses {
		ids, err := columnIDs(ctx, tx, status, "")
		if err != nil {
			return err
		}
		if err := renumber(ctx, tx, status, ids, now); err != nil {
			return err
		}
	}
	return nil
}

func renumber(ctx context.Context, tx *sqlx.Tx, status models.ProjectStatus, ids []string, now time.Time) error {
	stmt, err := tx.PreparexContext(ctx,
		`UPDATE projects SET status = ?, position = ?,
			updated_at = CASE WHEN status = ? AND position = ? THEN updated_at ELSE ? END
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare renumber: %w", err)
	}
	defer stmt.Close()
	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, string(status), i, string(status), i, now, id); err != nil {
			return fmt.Errorf("store: renumber %s: %w", id, err)
		}
	}
	return nil
}

// ProjectEntities lists projects of live clients as mention candidates.
func (db *DB) ProjectEntities(ctx context.Context) ([]models.Entity, error) {
	var out []models.Entity
	err := db.x.SelectContext(ctx, &out, `
		SELECT p.id, p.name FROM projects p JOIN clients c ON c.id = p.client_id
		WHERE c.deleted_at IS NULL ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("store: project entities: %w", err)
	}
	return out, nil
}
