package journal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/journal"
	"github.com/starford/agencyhub/internal/mention"
	"github.com/starford/agencyhub/internal/store"
	"github.com/starford/agencyhub/internal/testutil"
)

func ptr(s string) *string { return &s }

func TestCreate_DerivesMentionsAndTags(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	acme := testutil.Client(t, db, "Acme Roasters")
	p := testutil.Project(t, db, acme.ID, "Spring Launch", "backlog")
	note := testutil.Note(t, db, acme.ID, "Brand Voice", "<p>bold</p>")
	svc := journal.NewService(db, nil)

	e, err := svc.Create(ctx, "Call @Acme Roasters about @spring launch and @Brand Voice #Followup #urgent #followup @nobody", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{acme.ID}, e.MentionedClients)
	assert.Equal(t, []string{p.ID}, e.MentionedProjects)
	assert.Equal(t, []string{note.ID}, e.MentionedContent)
	assert.Equal(t, []string{"followup", "urgent"}, e.Tags)
	require.Len(t, e.Spans, 3)
	assert.Equal(t, mention.KindClient, e.Spans[0].Kind)

	stored, err := db.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.MentionedClients, stored.MentionedClients)
	assert.Equal(t, e.Tags, stored.Tags)
}

func TestUpdate_RecomputesArrays(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	acme := testutil.Client(t, db, "Acme")
	svc := journal.NewService(db, nil)

	e, err := svc.Create(ctx, "ping @acme #lead", nil)
	require.NoError(t, err)
	require.Equal(t, []string{acme.ID}, e.MentionedClients)

	e, err = svc.Update(ctx, e.ID, "nothing linked now", nil)
	require.NoError(t, err)
	assert.Empty(t, e.MentionedClients)
	assert.NotNil(t, e.MentionedClients)
	assert.Empty(t, e.Tags)

	got, total, err := svc.List(ctx, store.JournalFilter{ClientID: acme.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)
}

func TestSoftDeletedClientIsNotACandidate(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	gone := testutil.Client(t, db, "Gone Co")
	require.NoError(t, db.DeleteClient(ctx, gone.ID))
	svc := journal.NewService(db, nil)

	res, err := svc.Parse(ctx, "@Gone Co")
	require.NoError(t, err)
	assert.Empty(t, res.Clients)
}

func TestEntriesInChats(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	svc := journal.NewService(db, nil)

	chat, err := svc.CreateChat(ctx, "  Standup  ")
	require.NoError(t, err)
	assert.Equal(t, "Standup", chat.Title)

	_, err = svc.Create(ctx, "first", ptr(chat.ID))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "loose", ptr(""))
	require.NoError(t, err)

	_, err = svc.Create(ctx, "orphan", ptr("missing"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	inChat, total, err := svc.List(ctx, store.JournalFilter{ChatID: chat.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "first", inChat[0].Content)

	renamed, err := svc.RenameChat(ctx, chat.ID, "Daily")
	require.NoError(t, err)
	assert.Equal(t, "Daily", renamed.Title)
	assert.Equal(t, 1, renamed.EntryCount)

	require.NoError(t, svc.DeleteChat(ctx, chat.ID))
	_, total, err = svc.List(ctx, store.JournalFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "entries survive their chat")
}

func TestValidation(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	svc := journal.NewService(db, nil)

	_, err := svc.Create(ctx, "   ", nil)
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "content")

	_, err = svc.CreateChat(ctx, "")
	ve, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "title")

	_, err = svc.Update(ctx, "missing", "x", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
