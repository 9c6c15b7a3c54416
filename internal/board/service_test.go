package board_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/board"
	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/sse"
	"github.com/starford/agencyhub/internal/testutil"
)

type recorder struct {
	events  []string
	changes []sse.Change
}

func (r *recorder) Notify(c sse.Change) {
	r.events = append(r.events, c.Type()+":"+c.ID)
	r.changes = append(r.changes, c)
}

func names(ps []models.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func positions(ps []models.Project) []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.Position
	}
	return out
}

func TestBoard_ColumnsInStatusOrder(t *testing.T) {
	db := testutil.TestDB(t)
	c := testutil.Client(t, db, "Acme")
	testutil.Project(t, db, c.ID, "Done thing", models.StatusDone)
	testutil.Project(t, db, c.ID, "A", models.StatusBacklog)
	testutil.Project(t, db, c.ID, "B", models.StatusBacklog)

	svc := board.NewService(db, nil)
	cols, err := svc.Board(context.Background(), board.Filter{})
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, models.StatusBacklog, cols[0].Status)
	assert.Equal(t, "Backlog", cols[0].Title)
	assert.Equal(t, []string{"A", "B"}, names(cols[0].Projects))
	assert.NotNil(t, cols[1].Projects)
	assert.Empty(t, cols[1].Projects)
	assert.Equal(t, []string{"Done thing"}, names(cols[3].Projects))
}

func TestBoard_FilterByClientAndQuery(t *testing.T) {
	db := testutil.TestDB(t)
	acme := testutil.Client(t, db, "Acme")
	blue := testutil.Client(t, db, "Blue Bird")
	testutil.Project(t, db, acme.ID, "Spring launch", models.StatusBacklog)
	testutil.Project(t, db, blue.ID, "Spring promo", models.StatusBacklog)
	testutil.Project(t, db, blue.ID, "Audit", models.StatusBacklog)

	svc := board.NewService(db, nil)
	cols, err := svc.Board(context.Background(), board.Filter{ClientID: blue.ID, Query: "spring"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Spring promo"}, names(cols[0].Projects))
}

func TestMove_ReturnsDenseAffectedColumns(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	c := testutil.Client(t, db, "Acme")
	a := testutil.Project(t, db, c.ID, "A", models.StatusBacklog)
	testutil.Project(t, db, c.ID, "B", models.StatusBacklog)
	testutil.Project(t, db, c.ID, "C", models.StatusBacklog)
	testutil.Project(t, db, c.ID, "X", models.StatusInReview)

	rec := &recorder{}
	svc := board.NewService(db, rec)
	res, err := svc.Move(ctx, a.ID, models.StatusInReview, 0)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInReview, res.Project.Status)
	assert.Equal(t, 0, res.Project.Position)
	require.Len(t, res.Columns, 2)
	assert.Equal(t, models.StatusBacklog, res.Columns[0].Status)
	assert.Equal(t, []string{"B", "C"}, names(res.Columns[0].Projects))
	assert.Equal(t, []int{0, 1}, positions(res.Columns[0].Projects))
	assert.Equal(t, []string{"A", "X"}, names(res.Columns[1].Projects))
	assert.Equal(t, []int{0, 1}, positions(res.Columns[1].Projects))
	assert.Equal(t, []string{"project.moved:" + a.ID}, rec.events)
	assert.Equal(t, "backlog", rec.changes[0].From)
	assert.Equal(t, "in_review", rec.changes[0].To)
	assert.Equal(t, c.ID, rec.changes[0].ClientID)
}

func TestMove_IgnoresProjectsOfDeletedClients(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	acme := testutil.Client(t, db, "Acme")
	gone := testutil.Client(t, db, "Gone")
	testutil.Project(t, db, gone.ID, "Old", models.StatusInProgress)
	testutil.Project(t, db, acme.ID, "B", models.StatusInProgress)
	testutil.Project(t, db, acme.ID, "C", models.StatusInProgress)
	x := testutil.Project(t, db, acme.ID, "X", models.StatusBacklog)
	require.NoError(t, db.DeleteClient(ctx, gone.ID))

	svc := board.NewService(db, nil)
	cols, err := svc.Board(ctx, board.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, names(cols[1].Projects))
	assert.Equal(t, []int{0, 1}, positions(cols[1].Projects))

	res, err := svc.Move(ctx, x.ID, models.StatusInProgress, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Project.Position)
	assert.Equal(t, []string{"B", "X", "C"}, names(res.Columns[1].Projects))
	assert.Equal(t, []int{0, 1, 2}, positions(res.Columns[1].Projects))
}

func TestMove_WithinColumnReturnsOneColumn(t *testing.T) {
	db := testutil.TestDB(t)
	c := testutil.Client(t, db, "Acme")
	a := testutil.Project(t, db, c.ID, "A", models.StatusBacklog)
	testutil.Project(t, db, c.ID, "B", models.StatusBacklog)

	res, err := board.NewService(db, nil).Move(context.Background(), a.ID, models.StatusBacklog, 99)
	require.NoError(t, err)
	require.Len(t, res.Columns, 1)
	assert.Equal(t, []string{"B", "A"}, names(res.Columns[0].Projects))
	assert.Equal(t, 1, res.Project.Position)
}

func TestMove_Errors(t *testing.T) {
	db := testutil.TestDB(t)
	c := testutil.Client(t, db, "Acme")
	a := testutil.Project(t, db, c.ID, "A", models.StatusBacklog)
	rec := &recorder{}
	svc := board.NewService(db, rec)

	_, err := svc.Move(context.Background(), a.ID, "archived", 0)
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "to_status")

	_, err = svc.Move(context.Background(), "missing", models.StatusDone, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, rec.events)

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBacklog, got.Status)
}

func TestProjectCRUD(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	c := testutil.Client(t, db, "Acme")
	rec := &recorder{}
	svc := board.NewService(db, rec)

	p := &models.Project{ClientID: c.ID, Name: "Site refresh"}
	require.NoError(t, svc.Create(ctx, p))
	assert.Equal(t, models.StatusBacklog, p.Status)
	assert.Equal(t, models.PriorityMedium, p.Priority)

	bad := &models.Project{ClientID: c.ID, Priority: "whenever"}
	ve, ok := apperr.AsValidation(svc.Create(ctx, bad))
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "priority")

	p.Status = models.StatusDone
	p.Priority = models.PriorityUrgent
	require.NoError(t, svc.Update(ctx, p))
	assert.Equal(t, models.StatusDone, p.Status)
	assert.Equal(t, 0, p.Position)

	list, total, err := svc.List(ctx, board.ListFilter{Sort: "priority"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Site refresh", list[0].Name)

	_, _, err = svc.List(ctx, board.ListFilter{Sort: "random"})
	_, ok = apperr.AsValidation(err)
	assert.True(t, ok)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Len(t, rec.events, 3)
}
