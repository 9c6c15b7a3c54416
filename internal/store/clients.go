package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jmoiron/sqlx"

	"github.com/starford/agencyhub/internal/models"
)

type clientRow struct {
	ID                  string       `db:"id"`
	Name                string       `db:"name"`
	Email               string       `db:"email"`
	Phone               string       `db:"phone"`
	Company             string       `db:"company"`
	Website             string       `db:"website"`
	ClientCode          string       `db:"client_code"`
	IntakeResponses     string       `db:"intake_responses"`
	QuestionnaireStatus string       `db:"questionnaire_status"`
	BrandProfile        string       `db:"brand_profile"`
	CreatedAt           time.Time    `db:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at"`
	DeletedAt           sql.NullTime `db:"deleted_at"`
}

func (r clientRow) model() models.Client {
	c := models.Client{
		ID:                  r.ID,
		Name:                r.Name,
		Email:               r.Email,
		Phone:               r.Phone,
		Company:             r.Company,
		Website:             r.Website,
		ClientCode:          r.ClientCode,
		IntakeResponses:     models.IntakeResponses{},
		QuestionnaireStatus: models.QuestionnaireStatus(r.QuestionnaireStatus),
		BrandProfile:        models.BrandProfile{},
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
		DeletedAt:           timePtr(r.DeletedAt),
	}
	decodeJSON(r.IntakeResponses, &c.IntakeResponses, "client.intake_responses", r.ID)
	decodeJSON(r.BrandProfile, &c.BrandProfile, "client.brand_profile", r.ID)
	return c
}

// decodeJSON unmarshals a stored JSON column. Corrupt data is logged and the
// target keeps its zero value.
func decodeJSON(raw string, dst any, column, id string) {
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.Warn("store: malformed json column",
			slog.String("column", column), slog.String("id", id), slog.String("error", err.Error()))
	}
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("store: encode json: %w", err)
	}
	return string(data), nil
}

const clientColumns = `id, name, email, phone, company, website, client_code, intake_responses,
	questionnaire_status, brand_profile, created_at, updated_at, deleted_at`

// ClientFilter narrows ListClients.
type ClientFilter struct {
	Query  string
	Status models.QuestionnaireStatus
	Limit  int
	Offset int
}

// CreateClient inserts c, assigning its id, client code and timestamps.
func (db *DB) CreateClient(ctx context.Context, c *models.Client) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		code, err := nextClientCode(ctx, tx, c.Name)
		if err != nil {
			return err
		}
		now := db.now()
		c.ID = newID()
		c.ClientCode = code
		c.CreatedAt, c.UpdatedAt = now, now
		if c.QuestionnaireStatus == "" {
			c.QuestionnaireStatus = models.QuestionnaireNotStarted
		}
		if c.IntakeResponses == nil {
			c.IntakeResponses = models.IntakeResponses{}
		}
		if c.BrandProfile == nil {
			c.BrandProfile = models.BrandProfile{}
		}
		intake, err := encodeJSON(c.IntakeResponses)
		if err != nil {
			return err
		}
		profile, err := encodeJSON(c.BrandProfile)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO clients (id, name, email, phone, company, website, client_code,
				intake_responses, questionnaire_status, brand_profile, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Email, c.Phone, c.Company, c.Website, c.ClientCode,
			intake, string(c.QuestionnaireStatus), profile, now, now)
		if err != nil {
			return fmt.Errorf("store: insert client: %w", err)
		}
		return nil
	})
}

// ClientCodePrefix derives the alphabetic part of a client code from a name:
// the first four letters or digits, upper-cased.
func ClientCodePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 4 {
			break
		}
	}
	if b.Len() == 0 {
		return "CLNT"
	}
	return b.String()
}

func nextClientCode(ctx context.Context, tx *sqlx.Tx, name string) (string, error) {
	prefix := ClientCodePrefix(name)
	var codes []string
	if err := tx.SelectContext(ctx, &codes,
		`SELECT client_code FROM clients WHERE client_code LIKE ? ESCAPE '\'`, prefix+`-%`); err != nil {
		return "", fmt.Errorf("store: client codes: %w", err)
	}
	highest := 0
	for _, code := range codes {
		n, err := strconv.Atoi(strings.TrimPrefix(code, prefix+"-"))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, highest+1), nil
}

// GetClient returns a live (not soft-deleted) client.
func (db *DB) GetClient(ctx context.Context, id string) (*models.Client, error) {
	return getClient(ctx, db.x, id)
}

func getClient(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Client, error) {
	var row clientRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT `+clientColumns+` FROM clients WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, notFound(err, "get client")
	}
	c := row.model()
	return &c, nil
}

// ListClients returns live clients ordered by name, plus the total match count.
func (db *DB) ListClients(ctx context.Context, f ClientFilter) ([]models.Client, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if f.Query != "" {
		like := likePattern(f.Query)
		where = append(where, `(name LIKE ? ESCAPE '\' OR company LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR client_code LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like)
	}
	if f.Status != "" {
		where = append(where, "questionnaire_status = ?")
		args = append(args, string(f.Status))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.x.GetContext(ctx, &total, `SELECT count(*) FROM clients WHERE `+cond, args...); err != nil {
		return nil, 0, fmt.Errorf("store: count clients: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	var rows []clientRow
	err := db.x.SelectContext(ctx, &rows,
		`SELECT `+clientColumns+` FROM clients WHERE `+cond+` ORDER BY name COLLATE NOCASE LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list clients: %w", err)
	}
	out := make([]models.Client, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, total, nil
}

// UpdateClient writes the contact fields of c.
func (db *DB) UpdateClient(ctx context.Context, c *models.Client) error {
	c.UpdatedAt = db.now()
	res, err := db.x.ExecContext(ctx, `
		UPDATE clients SET name = ?, email = ?, phone = ?, company = ?, website = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		c.Name, c.Email, c.Phone, c.Company, c.Website, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("store: update client: %w", err)
	}
	return requireRow(res, "update client")
}

// UpdateIntake loads a client, lets fn modify its questionnaire fields and
// writes them back, all in one transaction. An error from fn aborts the write.
func (db *DB) UpdateIntake(ctx context.Context, id string, fn func(c *models.Client) error) (*models.Client, error) {
	var out *models.Client
	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		c, err := getClient(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		intake, err := encodeJSON(c.IntakeResponses)
		if err != nil {
			return err
		}
		profile, err := encodeJSON(c.BrandProfile)
		if err != nil {
			return err
		}
		c.UpdatedAt = db.now()
		_, err = tx.ExecContext(ctx, `
			UPDATE clients SET intake_responses = ?, questionnaire_status = ?, brand_profile = ?, updated_at = ?
			WHERE id = ?`,
			intake, string(c.QuestionnaireStatus), profile, c.UpdatedAt, c.ID)
		if err != nil {
			return fmt.Errorf("store: update intake: %w", err)
		}
		out = c
		return nil
	})
	return out, err
}

// DeleteClient soft-deletes a client. Its projects leave the board, so the
// remaining columns are renumbered in the same transaction.
func (db *DB) DeleteClient(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		now := db.now()
		res, err := tx.ExecContext(ctx,
			`UPDATE clients SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, now, now, id)
		if err != nil {
			return fmt.Errorf("store: delete client: %w", err)
		}
		if err := requireRow(res, "delete client"); err != nil {
			return err
		}
		return renumberColumns(ctx, tx, now)
	})
}

// ClientEntities lists live clients as mention candidates.
func (db *DB) ClientEntities(ctx context.Context) ([]models.Entity, error) {
	var out []models.Entity
	if err := db.x.SelectContext(ctx, &out,
		`SELECT id, name FROM clients WHERE deleted_at IS NULL ORDER BY name`); err != nil {
		return nil, fmt.Errorf("store: client entities: %w", err)
	}
	return out, nil
}
