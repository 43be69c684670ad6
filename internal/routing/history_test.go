package routing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
	"github.com/MrJamesThe3rd/doctrack/internal/routing/routingtest"
)

func TestGroupHistory(t *testing.T) {
	day1 := time.Date(2025, 3, 3, 9, 5, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)

	logs := []*routing.LogEntry{
		{ID: 1, Status: routing.LogProfiled, CreatedAt: day1},
		{ID: 2, Status: routing.LogReleased, CreatedAt: day1},
		{ID: 3, Status: routing.LogReceived, CreatedAt: day2},
	}

	days := routing.GroupHistory(logs)
	require.Len(t, days, 2)

	assert.Equal(t, "4 Mar, 2025", days[0].Date)
	require.Len(t, days[0].Entries, 1)
	assert.Equal(t, "3:30 PM", days[0].Entries[0].Time)

	assert.Equal(t, "3 Mar, 2025", days[1].Date)
	require.Len(t, days[1].Entries, 2)
	assert.Equal(t, "9:05 AM", days[1].Entries[0].Time)
	assert.Equal(t, int64(2), days[1].Entries[0].Entry.ID)
	assert.Equal(t, int64(1), days[1].Entries[1].Entry.ID)

	// Input order is untouched.
	assert.Equal(t, int64(1), logs[0].ID)

	assert.Empty(t, routing.GroupHistory(nil))
}

func TestService_History(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tx := h.released(t, draft(routing.ModeSingle, routingtest.ActionInformation, def("R1")))

	h.advance(26 * time.Hour)

	_, err := h.svc.Receive(ctx, office("R1"), tx.No, routing.ReceiveParams{})
	require.NoError(t, err)

	days, err := h.svc.History(ctx, tx.No)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, routing.LogReceived, days[0].Entries[0].Entry.Status)
	assert.Len(t, days[1].Entries, 2)
}
