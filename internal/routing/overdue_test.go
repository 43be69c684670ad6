package routing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
	"github.com/MrJamesThe3rd/doctrack/internal/routing/routingtest"
)

func TestDueDate(t *testing.T) {
	received := time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)
	urgent := library.UrgencyUrgent
	routine := library.UrgencyRoutine
	explicit := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		name    string
		tx      *routing.Transaction
		docType *library.DocumentType
		want    time.Time
	}

	tests := []testCase{
		{
			name: "SystemDefaultIsHigh",
			tx:   &routing.Transaction{},
			want: received.AddDate(0, 0, 3),
		},
		{
			name:    "DocumentTypeDefault",
			tx:      &routing.Transaction{},
			docType: &library.DocumentType{DefaultUrgency: &routine},
			want:    received.AddDate(0, 0, 7),
		},
		{
			name:    "TransactionUrgencyWins",
			tx:      &routing.Transaction{Urgency: &urgent},
			docType: &library.DocumentType{DefaultUrgency: &routine},
			want:    received.AddDate(0, 0, 1),
		},
		{
			name:    "ExplicitDueDateRunsToEndOfDay",
			tx:      &routing.Transaction{Urgency: &urgent, DueDate: &explicit},
			docType: &library.DocumentType{DefaultUrgency: &routine},
			want:    time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, routing.DueDate(tt.tx, tt.docType, received))
		})
	}
}

func TestEvaluateOverdue(t *testing.T) {
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	tx := &routing.Transaction{
		Status: routing.StatusProcessing,
		Recipients: []*routing.Recipient{
			rcpt("R1", routing.RecipientDefault, true),
			rcpt("R2", routing.RecipientDefault, true),
			rcpt("R3", routing.RecipientCC, true),
			rcpt("R4", routing.RecipientDefault, true),
		},
		Logs: []*routing.LogEntry{
			{OfficeID: "ORIGIN", Status: routing.LogReleased, CreatedAt: t0},
			{OfficeID: "R1", Status: routing.LogReceived, CreatedAt: t0},
			{OfficeID: "R2", Status: routing.LogReceived, CreatedAt: t0},
			{OfficeID: "R3", Status: routing.LogReceived, CreatedAt: t0},
			{OfficeID: "R2", Status: routing.LogDone, CreatedAt: t0.Add(time.Hour)},
		},
	}

	got := routing.EvaluateOverdue(tx, library.TypeFA, nil, t0.Add(4*24*time.Hour))

	// R2 is done, R3 is cc and R4 has not received: only R1 has a clock.
	require.Len(t, got, 1)

	st := got["R1"]
	assert.True(t, st.IsOverdue)
	assert.Equal(t, -1, st.DaysUntilDue)
	assert.Equal(t, t0.AddDate(0, 0, 3), st.DueDate)

	notYet := routing.EvaluateOverdue(tx, library.TypeFA, nil, t0.Add(24*time.Hour))
	assert.False(t, notYet["R1"].IsOverdue)
	assert.Equal(t, 2, notYet["R1"].DaysUntilDue)

	assert.Empty(t, routing.EvaluateOverdue(tx, library.TypeFI, nil, t0.Add(30*24*time.Hour)))

	tx.Status = routing.StatusCompleted
	assert.Empty(t, routing.EvaluateOverdue(tx, library.TypeFA, nil, t0.Add(30*24*time.Hour)))
}

func TestService_OverdueSweep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	memo := h.released(t, draft(routing.ModeMultiple, routingtest.ActionFollowUp, def("R1"), def("R2")))

	letter := draft(routing.ModeSingle, routingtest.ActionFollowUp, def("R1"))
	letter.DocumentType = "Letter"
	slow := h.released(t, letter)

	for _, no := range []string{memo.No, slow.No} {
		_, err := h.svc.Receive(ctx, office("R1"), no, routing.ReceiveParams{})
		require.NoError(t, err)
	}

	_, err := h.svc.Receive(ctx, office("R2"), memo.No, routing.ReceiveParams{})
	require.NoError(t, err)
	_, err = h.svc.MarkDone(ctx, office("R2"), memo.No, routing.DoneParams{})
	require.NoError(t, err)

	h.advance(4 * 24 * time.Hour)
	h.rec.Reset()

	deadlines, err := h.svc.Overdue(ctx, memo.No)
	require.NoError(t, err)
	assert.True(t, deadlines["R1"].IsOverdue)

	deadlines, err = h.svc.Overdue(ctx, slow.No)
	require.NoError(t, err)
	assert.False(t, deadlines["R1"].IsOverdue, "letters default to routine urgency")

	n, err := h.svc.OverdueCount(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = h.svc.OverdueCount(ctx, "R2")
	require.NoError(t, err)
	assert.Zero(t, n)

	items, err := h.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, memo.No, items[0].Transaction.No)
	assert.Equal(t, []string{"R1"}, h.rec.Offices(routing.EventOverdueRecipient))
	assert.Equal(t, []string{"ORIGIN"}, h.rec.Offices(routing.EventOverdueOrigin))
}
