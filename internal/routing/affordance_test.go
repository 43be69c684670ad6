package routing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
	"github.com/MrJamesThe3rd/doctrack/internal/routing/routingtest"
)

func TestService_Show(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tx, err := h.svc.Create(ctx, origin, draft(routing.ModeSequential, routingtest.ActionFollowUp, seq("R1", 1), seq("R2", 2)))
	require.NoError(t, err)

	view, err := h.svc.Show(ctx, origin, tx.No)
	require.NoError(t, err)
	assert.Equal(t, routing.Affordances{IsOriginator: true, CanRelease: true}, view.Affordances)

	_, err = h.svc.Release(ctx, origin, tx.No, routing.ReleaseParams{})
	require.NoError(t, err)

	view, err = h.svc.Show(ctx, origin, tx.No)
	require.NoError(t, err)
	assert.True(t, view.Affordances.CanManageRecipients)
	assert.True(t, view.Affordances.CanClose)
	assert.False(t, view.Affordances.CanRelease)
	assert.False(t, view.Affordances.CanReceive)

	view, err = h.svc.Show(ctx, office("R2"), tx.No)
	require.NoError(t, err)
	assert.False(t, view.Affordances.IsMyTurn)
	assert.False(t, view.Affordances.CanReceive)

	view, err = h.svc.Show(ctx, office("R1"), tx.No)
	require.NoError(t, err)
	assert.Equal(t, routing.Affordances{CanReceive: true, IsMyTurn: true}, view.Affordances)

	_, err = h.svc.Receive(ctx, office("R1"), tx.No, routing.ReceiveParams{})
	require.NoError(t, err)

	view, err = h.svc.Show(ctx, office("R1"), tx.No)
	require.NoError(t, err)
	assert.Equal(t, routing.Affordances{
		CanMarkDone:          true,
		CanForward:           true,
		CanReturn:            true,
		CanReply:             true,
		CanSubsequentRelease: true,
	}, view.Affordances)

	view, err = h.svc.Show(ctx, office("R2"), tx.No)
	require.NoError(t, err)
	assert.True(t, view.Affordances.IsMyTurn)
	assert.True(t, view.Affordances.CanReceive)
}
