package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
)

func TestHTMLToMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "headings paragraphs lists",
			in:   "<h2>Title</h2><p>Hello <strong>world</strong></p><ul><li>one</li><li>two</li></ul>",
			want: "## Title\n\nHello **world**\n- one\n- two\n",
		},
		{
			name: "breaks and entities",
			in:   "<p>Fish &amp; chips<br/>to <em>go</em></p>",
			want: "Fish & chips\nto *go*\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToMarkdown(tt.in))
		})
	}
}

func TestDocToMarkdown(t *testing.T) {
	doc := json.RawMessage(`{"type":"doc","content":[
		{"type":"heading","attrs":{"level":3},"content":[{"type":"text","text":"Plan"}]},
		{"type":"paragraph","content":[{"type":"text","text":"Ship "},{"type":"text","text":"now","marks":[{"type":"bold"}]}]},
		{"type":"orderedList","content":[
			{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"draft"}]}]},
			{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"review"}]}]}
		]}
	]}`)
	assert.Equal(t, "### Plan\n\nShip **now**\n\n1. draft\n2. review\n", DocToMarkdown(doc))
	assert.Empty(t, DocToMarkdown(json.RawMessage(`not json`)))
}

func TestAssetMarkdown(t *testing.T) {
	a := &models.ContentAsset{
		Title:     "Spring\nlaunch email",
		AssetType: models.AssetLandingPage,
		UpdatedAt: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Body:      models.Body{Note: &models.NoteBody{Format: models.FormatHTML, HTML: "<p>Hi</p>"}},
	}
	assert.Equal(t, "# Spring launch email\n\n*landing page, 4 Mar 2026*\n\nHi\n", AssetMarkdown(a))
}

func TestAssetPDF(t *testing.T) {
	a := &models.ContentAsset{
		Title:     "Brief",
		AssetType: models.AssetNote,
		Body:      models.Body{Note: &models.NoteBody{Format: models.FormatHTML, HTML: "<p>Short brief.</p>"}},
	}
	data, err := AssetPDF(a)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	file := &models.ContentAsset{Title: "Logo", Body: models.Body{File: &models.FileBody{URL: "/x", ObjectKey: "x"}}}
	_, err = AssetPDF(file)
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "body")
}
