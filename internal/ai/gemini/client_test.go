package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/starford/agencyhub/internal/ai"
)

func TestToContents_MapsRoles(t *testing.T) {
	got := toContents([]ai.Message{
		{Role: ai.RoleUser, Content: "hi"},
		{Role: ai.RoleAssistant, Content: "hello"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, string(genai.RoleUser), got[0].Role)
	assert.Equal(t, string(genai.RoleModel), got[1].Role)
	assert.Equal(t, "hello", got[1].Parts[0].Text)
}

func TestGenerateConfig(t *testing.T) {
	temp := float32(0.2)
	cfg := generateConfig(ai.CompletionRequest{SystemPrompt: "be brief", MaxTokens: 64, Temperature: &temp})
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "be brief", cfg.SystemInstruction.Parts[0].Text)
	assert.EqualValues(t, 64, cfg.MaxOutputTokens)
	assert.Same(t, &temp, cfg.Temperature)

	bare := generateConfig(ai.CompletionRequest{})
	assert.Nil(t, bare.SystemInstruction)
	assert.Zero(t, bare.MaxOutputTokens)
}

func TestEmbedder_ForQueries(t *testing.T) {
	e := &Embedder{model: "text-embedding-004", dims: 768, taskType: "RETRIEVAL_DOCUMENT"}
	q := e.ForQueries()
	assert.Equal(t, "RETRIEVAL_QUERY", q.taskType)
	assert.Equal(t, "RETRIEVAL_DOCUMENT", e.taskType)
	assert.Equal(t, 768, q.Dimensions())
}
