package project

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workshop-backend/pkg/errutil"
	"workshop-backend/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &Project{}, &Item{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(ServiceParams{DB: db, Node: node})
}

func requireStatusCode(t *testing.T, err error, code errutil.CoreStatus) {
	t.Helper()
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, code, be.Code)
}

func TestCreateAndGetWithItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{Name: "Bracket order", Description: "20x steel brackets"})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, created.Status)

	item, err := svc.CreateItem(ctx, created.ID, CreateItemRequest{Name: "Bracket", Quantity: 20})
	require.NoError(t, err)
	require.Equal(t, 20, item.Quantity)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, "Bracket", got.Items[0].Name)
}

func TestCreateItemDefaultsQuantity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{Name: "Bracket order"})
	require.NoError(t, err)

	item, err := svc.CreateItem(ctx, created.ID, CreateItemRequest{Name: "Bracket"})
	require.NoError(t, err)
	require.Equal(t, 1, item.Quantity)
}

func TestCreateItemOnMissingProject(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateItem(context.Background(), "missing", CreateItemRequest{Name: "Bracket"})
	require.Error(t, err)
	requireStatusCode(t, err, errutil.StatusNotFound)
}

func TestDeleteGuardedByItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{Name: "Bracket order"})
	require.NoError(t, err)
	item, err := svc.CreateItem(ctx, created.ID, CreateItemRequest{Name: "Bracket"})
	require.NoError(t, err)

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	requireStatusCode(t, err, errutil.StatusConflict)

	require.NoError(t, svc.DeleteItem(ctx, created.ID, item.ID))
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	requireStatusCode(t, err, errutil.StatusNotFound)
}
