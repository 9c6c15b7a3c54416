package rag_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_ai "github.com/starford/agencyhub/internal/mocks/ai"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/rag"
	"github.com/starford/agencyhub/internal/testutil"
)

func TestChunker_Split(t *testing.T) {
	para := func(ch string, n int) string { return strings.Repeat(ch, n) }

	tests := []struct {
		name string
		c    rag.Chunker
		text string
		want []string
	}{
		{name: "blank", c: rag.NewChunker(50, 0), text: " \n\n ", want: nil},
		{name: "short text is one chunk", c: rag.NewChunker(50, 0), text: "Hook. Story. Offer.", want: []string{"Hook. Story. Offer."}},
		{
			name: "paragraphs are packed until full",
			c:    rag.NewChunker(50, 0),
			text: para("a", 20) + "\n\n" + para("b", 20) + "\n\n" + para("c", 20),
			want: []string{para("a", 20) + "\n\n" + para("b", 20), para("c", 20)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Split(tt.text))
		})
	}
}

func TestChunker_LongParagraphOverlaps(t *testing.T) {
	words := make([]string, 60)
	for i := range words {
		words[i] = fmt.Sprintf("w%02d", i)
	}
	c := rag.NewChunker(40, 10)
	chunks := c.Split(strings.Join(words, " "))
	require.Greater(t, len(chunks), 3)

	for i, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 40, "chunk %d", i)
		if i == 0 {
			continue
		}
		prev := strings.Fields(chunks[i-1])
		assert.Contains(t, ch, prev[len(prev)-1], "chunk %d should repeat the tail of chunk %d", i, i-1)
	}
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "w59"))
}

func TestNewChunker_ClampsOverlap(t *testing.T) {
	c := rag.NewChunker(100, 100)
	assert.Less(t, c.Overlap, c.Size)
	assert.Equal(t, 1000, rag.NewChunker(0, 0).Size)
}

func framework(t *testing.T, name, content string) *models.Framework {
	t.Helper()
	return &models.Framework{Name: name, Content: content}
}

func TestIndexerAndRetriever(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	emb := mock_ai.NewMockEmbedder(ctrl)

	aida := framework(t, "AIDA", "Attention grabs.\n\nInterest builds.")
	pas := framework(t, "PAS", "Problem first.")
	require.NoError(t, db.CreateFramework(ctx, aida))
	require.NoError(t, db.CreateFramework(ctx, pas))

	ix := rag.NewIndexer(db, emb, rag.NewChunker(20, 0))
	emb.EXPECT().Embed(gomock.Any(), []string{"Attention grabs.", "Interest builds."}).
		Return([][]float32{{1, 0, 0}, {0.8, 0.6, 0}}, nil)
	emb.EXPECT().Embed(gomock.Any(), []string{"Problem first."}).
		Return([][]float32{{0, 0, 1}}, nil)

	n, err := ix.Index(ctx, aida)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = ix.Index(ctx, pas)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r := rag.NewRetriever(db, emb, 5, 0.5)
	emb.EXPECT().Embed(gomock.Any(), []string{"hook"}).Return([][]float32{{1, 0, 0}}, nil).Times(2)

	got, err := r.Retrieve(ctx, rag.Query{Text: "hook"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Attention grabs.", got[0].Content)
	assert.Equal(t, "AIDA", got[0].FrameworkName)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-5)
	assert.InDelta(t, 0.8, got[1].Similarity, 1e-5)

	zero := 0.0
	got, err = r.Retrieve(ctx, rag.Query{Text: "hook", K: 1, Threshold: &zero})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	blank, err := r.Retrieve(ctx, rag.Query{Text: "  "})
	require.NoError(t, err)
	assert.Empty(t, blank)
}

func TestIndexer_EmbedFailureKeepsOldChunks(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	emb := mock_ai.NewMockEmbedder(gomock.NewController(t))

	f := framework(t, "AIDA", "Attention grabs.")
	require.NoError(t, db.CreateFramework(ctx, f))
	ix := rag.NewIndexer(db, emb, rag.NewChunker(100, 0))

	emb.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)
	_, err := ix.Index(ctx, f)
	require.NoError(t, err)

	emb.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, errors.New("quota"))
	_, err = ix.Index(ctx, f)
	require.ErrorContains(t, err, "quota")

	got, err := db.GetFramework(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ChunkCount)
}
