package clients_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/clients"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/questionnaire"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/store"
	"github.com/starford/agencyhub/internal/testutil"
)

type recorder struct{ events []string }

func (r *recorder) Notify(c sse.Change) {
	r.events = append(r.events, c.Type())
}

var answers = map[int]map[string]any{
	1: {"company_name": "Acme", "industry": "Retail", "business_description": "We sell handmade goods to local shoppers."},
	2: {"ideal_customer": "Young families who value quality over price.", "customer_pain_points": "Cheap products break"},
	3: {"brand_voice": []any{"friendly", "bold"}, "brand_values": "Craft, honesty"},
	4: {"main_competitors": "BigBox", "differentiators": "Handmade"},
	5: {"primary_goals": []any{"sales"}, "success_metrics": "Monthly revenue"},
	6: {"current_channels": []any{"social"}},
	7: {"faith_integration": questionnaire.FaithSeparate},
	8: {"content_topics": "Craftsmanship", "preferred_content_types": []any{"email", "blog_post"}, "approval_contact_email": "owner@acme.test"},
}

func TestClientCRUD(t *testing.T) {
	db := testutil.TestDB(t)
	rec := &recorder{}
	svc := clients.NewService(db, rec)
	ctx := context.Background()

	c := &models.Client{Name: "Acme Corp", Email: "hi@acme.test"}
	require.NoError(t, svc.Create(ctx, c))
	assert.Equal(t, "ACME-001", c.ClientCode)
	assert.Equal(t, models.QuestionnaireNotStarted, c.QuestionnaireStatus)

	c.Company = "Acme Holdings"
	got, err := svc.Update(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", got.Company)

	list, total, err := svc.List(ctx, store.ClientFilter{Query: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, c.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), apperr.ErrNotFound)

	assert.Equal(t, []string{"client.created", "client.updated", "client.deleted"}, rec.events)
}

func TestClientValidation(t *testing.T) {
	svc := clients.NewService(testutil.TestDB(t), nil)
	ctx := context.Background()

	ve, ok := apperr.AsValidation(svc.Create(ctx, &models.Client{Email: "not-an-email"}))
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "email")

	_, _, err := svc.List(ctx, store.ClientFilter{Status: "archived"})
	_, ok = apperr.AsValidation(err)
	assert.True(t, ok)
}

func TestSaveSection_AutosaveAndProgress(t *testing.T) {
	db := testutil.TestDB(t)
	svc := clients.NewService(db, nil)
	ctx := context.Background()
	c := testutil.Client(t, db, "Acme")

	q, err := svc.SaveSection(ctx, c.ID, 1, map[string]any{"company_name": "Acme", "unknown": "dropped"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.QuestionnaireInProgress, q.Status)
	assert.Equal(t, map[string]any{"company_name": "Acme"}, q.Responses["business_overview"])
	assert.Contains(t, q.Errors, "business_overview.industry")
	assert.Equal(t, 1, q.Progress.Resume)

	q, err = svc.SaveSection(ctx, c.ID, 1, answers[1], q.Checksum)
	require.NoError(t, err)
	assert.Empty(t, q.Errors)
	assert.Equal(t, 1, q.Progress.Completed)
	assert.Equal(t, 2, q.Progress.Resume)

	loaded, err := svc.Questionnaire(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Checksum, loaded.Checksum)
}

func TestSaveSection_Errors(t *testing.T) {
	db := testutil.TestDB(t)
	svc := clients.NewService(db, nil)
	ctx := context.Background()
	c := testutil.Client(t, db, "Acme")

	_, err := svc.SaveSection(ctx, c.ID, 9, nil, "")
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "section")

	_, err = svc.SaveSection(ctx, "missing", 1, answers[1], "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	first, err := svc.SaveSection(ctx, c.ID, 1, answers[1], "")
	require.NoError(t, err)
	_, err = svc.SaveSection(ctx, c.ID, 2, answers[2], first.Checksum)
	require.NoError(t, err)

	// the first checksum is stale now
	_, err = svc.SaveSection(ctx, c.ID, 3, answers[3], `"`+first.Checksum+`"`)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	q, err := svc.Questionnaire(ctx, c.ID)
	require.NoError(t, err)
	assert.NotContains(t, q.Responses, "brand_identity")
}

func TestSubmit(t *testing.T) {
	db := testutil.TestDB(t)
	rec := &recorder{}
	svc := clients.NewService(db, rec)
	ctx := context.Background()
	c := testutil.Client(t, db, "Acme")

	for n := 1; n <= 7; n++ {
		_, err := svc.SaveSection(ctx, c.ID, n, answers[n], "")
		require.NoError(t, err)
	}
	_, err := svc.Submit(ctx, c.ID, "")
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "content_preferences.content_topics")

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuestionnaireInProgress, stored.QuestionnaireStatus)

	_, err = svc.SaveSection(ctx, c.ID, 8, answers[8], "")
	require.NoError(t, err)
	q, err := svc.Submit(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.QuestionnaireCompleted, q.Status)
	assert.Equal(t, 8, q.Progress.Completed)

	stored, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuestionnaireCompleted, stored.QuestionnaireStatus)
	assert.Equal(t, "Acme", stored.BrandProfile["Business Overview"]["Company name"])
	assert.Contains(t, rec.events, "client.questionnaire_submitted")

	// breaking a required answer drops the status back
	q, err = svc.SaveSection(ctx, c.ID, 1, map[string]any{"industry": ""}, "")
	require.NoError(t, err)
	assert.Equal(t, models.QuestionnaireInProgress, q.Status)
}

func TestSchema(t *testing.T) {
	svc := clients.NewService(testutil.TestDB(t), nil)
	sections := svc.Schema()
	require.Len(t, sections, 8)
	assert.Equal(t, "faith_values", sections[6].Key)
}
