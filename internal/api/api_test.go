package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/starford/agencyhub/internal/ai"
	"github.com/starford/agencyhub/internal/board"
	"github.com/starford/agencyhub/internal/clients"
	"github.com/starford/agencyhub/internal/content"
	"github.com/starford/agencyhub/internal/dashboard"
	"github.com/starford/agencyhub/internal/frameworks"
	"github.com/starford/agencyhub/internal/journal"
	mock_ai "github.com/starford/agencyhub/internal/mocks/ai"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/search"
	"github.com/starford/agencyhub/internal/storage"
	"github.com/starford/agencyhub/internal/store"
	"github.com/starford/agencyhub/internal/studio"
	"github.com/starford/agencyhub/internal/testutil"
)

type testEnv struct {
	router http.Handler
	db     *store.DB
	chat   *mock_ai.MockChatModel
}

// newEnv wires every service against a temp database and upload dir.
// An empty token means auth is disabled.
func newEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	db := testutil.TestDB(t)
	_, blobs := testutil.TestStorage(t)

	reg, err := ai.NewRegistry([]ai.ModelSpec{
		{ID: "gpt-4o-mini", Provider: "openai", Tier: ai.TierSimple, InputPM: 0.15, OutputPM: 0.6},
		{ID: "gpt-4o", Provider: "openai", Tier: ai.TierMedium, InputPM: 2.5, OutputPM: 10},
	}, map[ai.Tier]string{ai.TierSimple: "gpt-4o-mini", ai.TierMedium: "gpt-4o"})
	require.NoError(t, err)
	chat := mock_ai.NewMockChatModel(gomock.NewController(t))
	reg.Register("openai", chat)

	svc := Services{
		Clients:    clients.NewService(db, nil),
		Board:      board.NewService(db, nil),
		Content:    content.NewService(db, blobs, storage.NewSigner("test-secret", time.Minute), nil, content.Config{}),
		Journal:    journal.NewService(db, nil),
		Frameworks: frameworks.NewService(db, nil, nil, nil),
		Studio:     studio.NewService(db, reg, nil, nil, studio.Config{}),
		Search:     search.New(db),
		Dashboard:  dashboard.NewService(db),
	}
	return &testEnv{router: NewRouter(svc, token != "", token, nil), db: db, chat: chat}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuth(t *testing.T) {
	e := newEnv(t, "secret")

	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{name: "no header", want: http.StatusUnauthorized},
		{name: "wrong token", header: []string{"Authorization", "Bearer nope"}, want: http.StatusUnauthorized},
		{name: "wrong scheme", header: []string{"Authorization", "Basic secret"}, want: http.StatusUnauthorized},
		{name: "valid token", header: []string{"Authorization", "Bearer secret"}, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodGet, "/clients", nil, tt.header...)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestClientsCRUD(t *testing.T) {
	e := newEnv(t, "")

	w := e.do(t, http.MethodPost, "/clients", map[string]string{"name": "Acme Corp", "email": "not-an-email"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[errResponse](t, w).Fields, "email")

	w = e.do(t, http.MethodPost, "/clients", map[string]string{"name": "Acme Corp", "email": "hi@acme.test"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := decode[models.Client](t, w)
	assert.Equal(t, "ACME-001", c.ClientCode)

	w = e.do(t, http.MethodGet, "/clients?q=acme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[listResponse[models.Client]](t, w).Total)

	w = e.do(t, http.MethodPut, "/clients/"+c.ID, map[string]string{"name": "Acme Holdings"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Acme Holdings", decode[models.Client](t, w).Name)

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/clients/"+c.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/clients/"+c.ID, nil).Code)
}

func TestBadJSON(t *testing.T) {
	e := newEnv(t, "")
	w := e.do(t, http.MethodPost, "/clients", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuestionnaireAutosave(t *testing.T) {
	e := newEnv(t, "")
	c := testutil.Client(t, e.db, "Acme")
	path := "/clients/" + c.ID + "/questionnaire"

	w := e.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	section := map[string]any{"answers": map[string]any{"company_name": "Acme", "industry": "Retail"}}
	w = e.do(t, http.MethodPut, path+"/sections/1", section, "If-Match", etag)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	q := decode[clients.Questionnaire](t, w)
	assert.Equal(t, models.QuestionnaireInProgress, q.Status)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))

	// The first ETag no longer matches the stored responses.
	w = e.do(t, http.MethodPut, path+"/sections/1", section, "If-Match", etag)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPut, path+"/sections/x", section)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, path+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, decode[errResponse](t, w).Fields)

	w = e.do(t, http.MethodGet, "/questionnaire/schema", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "company_name")
}

func TestBoardMove(t *testing.T) {
	e := newEnv(t, "")
	c := testutil.Client(t, e.db, "Acme")
	testutil.Project(t, e.db, c.ID, "First", models.StatusBacklog)
	p2 := testutil.Project(t, e.db, c.ID, "Second", models.StatusBacklog)
	testutil.Project(t, e.db, c.ID, "Running", models.StatusInProgress)

	w := e.do(t, http.MethodPost, "/board/moves", map[string]any{"project_id": p2.ID, "to_status": "in_progress", "to_index": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[board.MoveResult](t, w)
	assert.Equal(t, models.StatusInProgress, res.Project.Status)
	assert.Equal(t, 0, res.Project.Position)

	w = e.do(t, http.MethodPost, "/board/moves", map[string]any{"project_id": p2.ID, "to_status": "archived", "to_index": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodPost, "/board/moves", map[string]any{"project_id": "missing", "to_status": "done", "to_index": 0})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/board", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cols := decode[map[string][]board.Column](t, w)["columns"]
	require.Len(t, cols, 4)
	require.Len(t, cols[1].Projects, 2)
	assert.Equal(t, p2.ID, cols[1].Projects[0].ID)
}

func TestProjectUpdateKeepsStatus(t *testing.T) {
	e := newEnv(t, "")
	c := testutil.Client(t, e.db, "Acme")
	p := testutil.Project(t, e.db, c.ID, "Launch", models.StatusInReview)

	w := e.do(t, http.MethodPut, "/projects/"+p.ID, map[string]any{"client_id": c.ID, "name": "Launch v2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[models.Project](t, w)
	assert.Equal(t, "Launch v2", got.Name)
	assert.Equal(t, models.StatusInReview, got.Status)

	w = e.do(t, http.MethodGet, "/projects?status=in_review&sort=name", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[listResponse[models.Project]](t, w).Total)
}

func TestUploadFlow(t *testing.T) {
	e := newEnv(t, "secret")
	auth := []string{"Authorization", "Bearer secret"}
	c := testutil.Client(t, e.db, "Acme")

	w := e.do(t, http.MethodPost, "/uploads/sign", map[string]string{"filename": "Brief Notes.txt"}, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	signed := decode[storage.SignedUpload](t, w)
	require.True(t, strings.HasPrefix(signed.UploadURL, "/api/uploads/"))

	// The signed PUT carries no bearer token.
	target := strings.TrimPrefix(signed.UploadURL, "/api")
	w = e.do(t, http.MethodPut, target, []byte("hello from the brief"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	u, err := url.Parse(target)
	require.NoError(t, err)
	q := u.Query()
	q.Set("sig", q.Get("sig")+"0")
	w = e.do(t, http.MethodPut, u.Path+"?"+q.Encode(), []byte("tampered"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/content/files", map[string]string{
		"client_id": c.ID, "object_key": signed.ObjectKey, "filename": "Brief Notes.txt",
	}, auth...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := decode[models.ContentAsset](t, w)
	assert.Equal(t, models.AssetFile, a.AssetType)
	assert.Equal(t, "Brief Notes.txt", a.Title)

	w = e.do(t, http.MethodGet, "/files/"+signed.ObjectKey, nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello from the brief", w.Body.String())

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/files/uploads/../secret", nil, auth...).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/files/"+signed.ObjectKey, nil).Code)
}

func TestContentBulkAndExport(t *testing.T) {
	e := newEnv(t, "")
	c := testutil.Client(t, e.db, "Acme")
	p := testutil.Project(t, e.db, c.ID, "Launch", models.StatusBacklog)
	n1 := testutil.Note(t, e.db, c.ID, "Launch plan", "<h1>Plan</h1><p>Ship it.</p>")
	n2 := testutil.Note(t, e.db, c.ID, "Ideas", "<p>More ideas</p>")

	w := e.do(t, http.MethodPost, "/content/bulk", map[string]any{"action": "assign_project", "ids": []string{n1.ID, n2.ID}, "project_id": p.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[map[string]int](t, w)["affected"])

	w = e.do(t, http.MethodGet, "/content?project_id="+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[listResponse[models.ContentAsset]](t, w).Total)

	w = e.do(t, http.MethodPost, "/content/bulk", map[string]any{"action": "archive", "ids": []string{n1.ID}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodGet, "/content/"+n1.ID+"/export.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Launch-plan.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestJournal(t *testing.T) {
	e := newEnv(t, "")
	c := testutil.Client(t, e.db, "Acme")

	w := e.do(t, http.MethodPost, "/journal/parse", map[string]string{"content": "Call @Acme about #launch"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), c.ID)

	w = e.do(t, http.MethodPost, "/journal/chats", map[string]string{"title": "Monday"})
	require.Equal(t, http.StatusCreated, w.Code)
	chat := decode[models.JournalChat](t, w)

	w = e.do(t, http.MethodPost, "/journal", map[string]any{"content": "Call @Acme about #launch", "chat_id": chat.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/journal?tag=launch&client_id="+c.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[listResponse[models.JournalEntry]](t, w).Total)

	w = e.do(t, http.MethodPost, "/journal", map[string]any{"content": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStudioGenerate(t *testing.T) {
	e := newEnv(t, "")
	c := testutil.Client(t, e.db, "Acme")

	e.chat.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
			assert.Equal(t, "gpt-4o-mini", req.Model)
			return ai.CompletionResponse{Text: "Subject: Hello", InputTokens: 1000, OutputTokens: 100}, nil
		})
	w := e.do(t, http.MethodPost, "/studio/generate", map[string]any{
		"client_id": c.ID, "task_type": "email", "prompt": "Welcome email", "tier": "simple", "auto_save": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[studio.Result](t, w)
	assert.Equal(t, "Subject: Hello", res.Text)
	assert.NotEmpty(t, res.AssetID)

	e.chat.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(ai.CompletionResponse{}, errors.New("upstream 500"))
	w = e.do(t, http.MethodPost, "/studio/generate", map[string]any{"prompt": "Anything"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "upstream")

	w = e.do(t, http.MethodPost, "/studio/generate", map[string]any{"prompt": "x", "model": "gpt-9"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodGet, "/studio/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gpt-4o-mini")

	w = e.do(t, http.MethodGet, "/analytics/spend?group_by=model&from=2000-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "gpt-4o-mini")
}

func TestFrameworksWithoutEmbedder(t *testing.T) {
	e := newEnv(t, "")

	w := e.do(t, http.MethodPost, "/frameworks", map[string]string{"name": "AIDA", "content": "Attention, interest, desire, action."})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f := decode[models.Framework](t, w)
	assert.Zero(t, f.ChunkCount)

	assert.Equal(t, http.StatusUnprocessableEntity, e.do(t, http.MethodPost, "/frameworks/"+f.ID+"/reindex", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, e.do(t, http.MethodPost, "/frameworks/search", map[string]string{"query": "hook"}).Code)
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/frameworks/"+f.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/frameworks/"+f.ID, nil).Code)
}

func TestSearchAndDashboard(t *testing.T) {
	e := newEnv(t, "")
	c := testutil.Client(t, e.db, "Acme")
	testutil.Project(t, e.db, c.ID, "Acme launch", models.StatusInProgress)

	assert.Equal(t, http.StatusUnprocessableEntity, e.do(t, http.MethodGet, "/search?q=%20", nil).Code)

	w := e.do(t, http.MethodGet, "/search?q=acme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[search.Results](t, w)
	assert.Len(t, res.Clients, 1)
	assert.Len(t, res.Projects, 1)
	assert.NotNil(t, res.Journal)

	w = e.do(t, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	o := decode[dashboard.Overview](t, w)
	assert.Equal(t, 1, o.Projects[string(models.StatusInProgress)])

	assert.Equal(t, http.StatusUnprocessableEntity, e.do(t, http.MethodGet, "/analytics/spend?from=yesterday", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, e.do(t, http.MethodGet, "/analytics/spend?group_by=planet", nil).Code)
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("from", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseTime("to", "2026-03-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())

	got, err = parseTime("to", "")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
