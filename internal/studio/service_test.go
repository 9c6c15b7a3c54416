package studio_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/starford/agencyhub/internal/ai"
	"github.com/starford/agencyhub/internal/apperr"
	mock_ai "github.com/starford/agencyhub/internal/mocks/ai"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/rag"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
	"github.com/starford/agencyhub/internal/studio"
	"github.com/starford/agencyhub/internal/testutil"
)

type fixture struct {
	db       *store.DB
	chat     *mock_ai.MockChatModel
	embedder *mock_ai.MockEmbedder
	svc      *studio.Service
	changes  []string
}

func (f *fixture) Notify(c sse.Change) {
	f.changes = append(f.changes, c.Type())
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		db:       testutil.TestDB(t),
		chat:     mock_ai.NewMockChatModel(ctrl),
		embedder: mock_ai.NewMockEmbedder(ctrl),
	}
	reg, err := ai.NewRegistry([]ai.ModelSpec{
		{ID: "small", Provider: "openai", Tier: ai.TierSimple, InputPM: 1, OutputPM: 2},
		{ID: "big", Provider: "openai", Tier: ai.TierMedium, InputPM: 10, OutputPM: 20},
	}, map[ai.Tier]string{ai.TierSimple: "small", ai.TierMedium: "big"})
	require.NoError(t, err)
	reg.Register("openai", f.chat)

	retriever := rag.NewRetriever(f.db, f.embedder, 3, 0.5)
	f.svc = studio.NewService(f.db, reg, retriever, f, studio.Config{DefaultMaxTokens: 512, DefaultTemperature: 0.7})
	return f
}

func (f *fixture) seedClient(t *testing.T) *models.Client {
	t.Helper()
	c := testutil.Client(t, f.db, "Acme Roasters")
	_, err := f.db.UpdateIntake(context.Background(), c.ID, func(c *models.Client) error {
		c.IntakeResponses = models.IntakeResponses{
			"business_overview": {"company_name": "Acme Roasters", "industry": "Coffee"},
		}
		c.QuestionnaireStatus = models.QuestionnaireInProgress
		return nil
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) seedFramework(t *testing.T) *models.Framework {
	t.Helper()
	ctx := context.Background()
	fw := &models.Framework{Name: "PAS", Content: "Problem. Agitate. Solve."}
	require.NoError(t, f.db.CreateFramework(ctx, fw))
	require.NoError(t, f.db.ReplaceChunks(ctx, fw.ID, []models.FrameworkChunk{
		{ChunkIndex: 0, Content: "Name the problem, agitate it, then solve it.", Embedding: []float32{1, 0}},
	}))
	return fw
}

func TestGenerate_AssemblesPromptRecordsCostAndSaves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.seedClient(t)
	fw := f.seedFramework(t)

	f.embedder.EXPECT().Embed(gomock.Any(), []string{"Launch email for our new roast"}).
		Return([][]float32{{1, 0}}, nil)
	f.chat.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
			assert.Equal(t, "small", req.Model)
			assert.Equal(t, 512, req.MaxTokens)
			require.NotNil(t, req.Temperature)
			assert.InDelta(t, 0.7, *req.Temperature, 1e-6)
			assert.Contains(t, req.SystemPrompt, "## Brand profile")
			assert.Contains(t, req.SystemPrompt, `"Company name": "Acme Roasters"`)
			assert.Contains(t, req.SystemPrompt, "### PAS\nName the problem")
			assert.Contains(t, req.SystemPrompt, "Subject:")
			require.Len(t, req.Messages, 1)
			assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "Launch email for our new roast"}, req.Messages[0])
			return ai.CompletionResponse{Text: "Subject: Fresh\n\nIt is <here>.", InputTokens: 1000, OutputTokens: 500}, nil
		})

	res, err := f.svc.Generate(ctx, studio.Request{
		ClientID: client.ID,
		TaskType: studio.TaskEmail,
		Prompt:   "Launch email for our new roast",
		Tier:     ai.TierSimple,
		AutoSave: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "small", res.Model)
	assert.InDelta(t, 0.002, res.CostUSD, 1e-9)
	require.Len(t, res.Frameworks, 1)
	assert.Equal(t, fw.ID, res.Frameworks[0].FrameworkID)
	require.NotEmpty(t, res.AssetID)
	assert.Empty(t, res.SaveError)
	assert.Equal(t, []string{"content.created"}, f.changes)

	asset, err := f.db.GetContent(ctx, res.AssetID)
	require.NoError(t, err)
	assert.Equal(t, models.AssetEmail, asset.AssetType)
	assert.Equal(t, "<p>Subject: Fresh</p><p>It is &lt;here&gt;.</p>", asset.Body.Note.HTML)
	require.NotNil(t, asset.Metadata.AI)
	assert.Equal(t, res.ExecutionID, asset.Metadata.AI.ExecutionID)
	assert.Equal(t, []string{fw.ID}, asset.Metadata.AI.FrameworkIDs)

	execs, err := f.db.RecentExecutions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.True(t, execs[0].Succeeded)
	assert.Equal(t, 1000, execs[0].InputTokens)
	require.NotNil(t, execs[0].AssetID)
	assert.Equal(t, res.AssetID, *execs[0].AssetID)
	require.NotNil(t, execs[0].ClientID)
	assert.Equal(t, client.ID, *execs[0].ClientID)
}

func TestGenerate_RetrievalFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.seedFramework(t)

	f.embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, errors.New("embedding quota"))
	f.chat.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
			assert.NotContains(t, req.SystemPrompt, "Copywriting frameworks")
			assert.NotContains(t, req.SystemPrompt, "Brand profile")
			return ai.CompletionResponse{Text: "ok", InputTokens: 10, OutputTokens: 5}, nil
		})

	res, err := f.svc.Generate(context.Background(), studio.Request{Prompt: "three taglines"})
	require.NoError(t, err)
	assert.Equal(t, "big", res.Model, "empty tier uses the medium default")
	assert.Empty(t, res.Frameworks)
	assert.Empty(t, res.AssetID)
}

func TestGenerate_ModelFailureIsLoggedAndGeneric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.chat.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(ai.CompletionResponse{}, errors.New("response error 500: upstream"))

	_, err := f.svc.Generate(ctx, studio.Request{Prompt: "hi", Model: "small", SkipFrameworks: true, AutoSave: false})
	require.Error(t, err)
	assert.ErrorIs(t, err, studio.ErrGeneration)

	execs, err := f.db.RecentExecutions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.False(t, execs[0].Succeeded)
	assert.Contains(t, execs[0].Error, "upstream")
	assert.Zero(t, execs[0].CostUSD)
}

func TestGenerate_History(t *testing.T) {
	f := newFixture(t)
	f.chat.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
			require.Len(t, req.Messages, 3)
			assert.Equal(t, ai.RoleAssistant, req.Messages[1].Role)
			assert.Equal(t, "shorter", req.Messages[2].Content)
			return ai.CompletionResponse{Text: "ok"}, nil
		})
	_, err := f.svc.Generate(context.Background(), studio.Request{
		Prompt:         "shorter",
		SkipFrameworks: true,
		History: []ai.Message{
			{Role: ai.RoleUser, Content: "write a slogan"},
			{Role: ai.RoleAssistant, Content: "Coffee that wakes the city"},
		},
	})
	require.NoError(t, err)
}

func TestGenerate_RejectsBadRequestsWithoutCallingModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   studio.Request
		field string
	}{
		{name: "empty prompt", req: studio.Request{}, field: "prompt"},
		{name: "unknown task", req: studio.Request{Prompt: "x", TaskType: "poem"}, field: "task_type"},
		{name: "auto-save needs client", req: studio.Request{Prompt: "x", AutoSave: true}, field: "client_id"},
		{name: "unknown model", req: studio.Request{Prompt: "x", Model: "gpt-9"}, field: "model"},
		{name: "bad tier", req: studio.Request{Prompt: "x", Tier: "huge"}, field: "tier"},
		{name: "bad history role", req: studio.Request{Prompt: "x", History: []ai.Message{{Role: "system", Content: "y"}}}, field: "history.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Generate(ctx, tt.req)
			ve, ok := apperr.AsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestGenerate_UnknownClient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Generate(context.Background(), studio.Request{Prompt: "x", ClientID: "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGenerate_AutoSaveRejectsProjectOfAnotherClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.seedClient(t)
	blue := testutil.Client(t, f.db, "Blue Bird")
	bluesProject := testutil.Project(t, f.db, blue.ID, "Blue launch", models.StatusBacklog)
	missing := "missing"

	for name, projectID := range map[string]*string{"other client": &bluesProject.ID, "unknown": &missing} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Generate(ctx, studio.Request{
				Prompt: "x", ClientID: acme.ID, ProjectID: projectID, AutoSave: true, SkipFrameworks: true,
			})
			ve, ok := apperr.AsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, ve.Fields, "project_id")
		})
	}

	list, _, err := f.db.ListContent(ctx, store.ContentFilter{ClientID: acme.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
}
