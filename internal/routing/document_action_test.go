package routing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
	"github.com/MrJamesThe3rd/doctrack/internal/routing/routingtest"
)

func TestService_Close(t *testing.T) {
	type testCase struct {
		name    string
		prepare func(t *testing.T, h *harness, tx *routing.Transaction)
		actor   routing.Actor
		reason  string
		pending []string
	}

	tests := []testCase{
		{
			name:    "ForceClosesProcessing",
			actor:   origin,
			pending: []string{"R1", "R2"},
		},
		{
			name: "ClosesReturned",
			prepare: func(t *testing.T, h *harness, tx *routing.Transaction) {
				ctx := context.Background()

				_, err := h.svc.Receive(ctx, office("R1"), tx.No, routing.ReceiveParams{})
				require.NoError(t, err)
				_, err = h.svc.ReturnToSender(ctx, office("R1"), tx.No, routing.ReturnParams{Reason: "incomplete"})
				require.NoError(t, err)

				h.rec.Reset()
			},
			actor: origin,
		},
		{
			name:   "OnlyOrigin",
			actor:  office("R1"),
			reason: "Only the originating office can close this document.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			tx := h.released(t, draft(routing.ModeMultiple, routingtest.ActionFollowUp, def("R1"), def("R2")))
			if tt.prepare != nil {
				tt.prepare(t, h, tx)
			}

			doc, err := h.svc.Close(ctx, tt.actor, tx.DocumentNo, routing.CloseParams{Remarks: "no longer needed"})
			if tt.reason != "" {
				assertGuard(t, err, tt.reason)
				assert.Equal(t, routing.DocumentActive, h.document(t, tx.DocumentNo).Status)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, routing.DocumentClosed, doc.Status)
			assert.ElementsMatch(t, tt.pending, h.rec.Offices(routing.EventForceClosed))

			got, err := h.svc.Get(ctx, tx.No)
			require.NoError(t, err)
			assert.Empty(t, got.ActiveRecipients())

			if len(tt.pending) > 0 {
				assert.Equal(t, routing.StatusCompleted, got.Status)
				assert.Equal(t, routing.LogClosed, got.Logs[len(got.Logs)-1].Status)
			}
		})
	}
}

func TestService_CloseDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tx, err := h.svc.Create(ctx, origin, draft(routing.ModeSingle, routingtest.ActionFollowUp, def("R1")))
	require.NoError(t, err)

	_, err = h.svc.Close(ctx, origin, tx.DocumentNo, routing.CloseParams{})
	assertGuard(t, err, "A draft document cannot be closed.")
}

func TestService_CloseBulk(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	complete := func() *routing.Transaction {
		tx := h.released(t, draft(routing.ModeSingle, routingtest.ActionInformation, def("R1")))

		tx, err := h.svc.Receive(ctx, office("R1"), tx.No, routing.ReceiveParams{})
		require.NoError(t, err)
		require.Equal(t, routing.DocumentCompleted, tx.Document.Status)

		return tx
	}

	a := complete()
	b := complete()
	pending := h.released(t, draft(routing.ModeSingle, routingtest.ActionInformation, def("R1")))

	_, err := h.svc.CloseBulk(ctx, origin, []string{a.DocumentNo, pending.DocumentNo, b.DocumentNo}, routing.CloseParams{})
	assertGuard(t, err, "Document "+pending.DocumentNo+" is not completed.")
	assert.Equal(t, routing.DocumentCompleted, h.document(t, a.DocumentNo).Status)
	assert.Equal(t, routing.DocumentCompleted, h.document(t, b.DocumentNo).Status)

	_, err = h.svc.CloseBulk(ctx, office("R1"), []string{a.DocumentNo}, routing.CloseParams{})
	assertGuard(t, err, "Only the originating office can close "+a.DocumentNo+".")

	_, err = h.svc.CloseBulk(ctx, origin, nil, routing.CloseParams{})
	require.ErrorIs(t, err, routing.ErrValidation)

	docs, err := h.svc.CloseBulk(ctx, origin, []string{a.DocumentNo, b.DocumentNo, a.DocumentNo}, routing.CloseParams{Remarks: "archived"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	for _, doc := range docs {
		assert.Equal(t, routing.DocumentClosed, doc.Status)
	}

	got, err := h.svc.Get(ctx, a.No)
	require.NoError(t, err)

	last := got.Logs[len(got.Logs)-1]
	assert.Equal(t, routing.LogClosed, last.Status)
	assert.Equal(t, "archived", last.Remarks)
}

func TestService_ReRelease(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tx := h.released(t, draft(routing.ModeMultiple, routingtest.ActionInformation, def("R1"), def("R2")))

	_, err := h.svc.ReRelease(ctx, origin, tx.DocumentNo, routing.ReReleaseParams{})
	assertGuard(t, err, "Only a returned document can be re-released.")

	_, err = h.svc.Receive(ctx, office("R1"), tx.No, routing.ReceiveParams{})
	require.NoError(t, err)
	_, err = h.svc.ReturnToSender(ctx, office("R1"), tx.No, routing.ReturnParams{Reason: "missing annex"})
	require.NoError(t, err)

	h.rec.Reset()

	_, err = h.svc.ReRelease(ctx, office("R1"), tx.DocumentNo, routing.ReReleaseParams{})
	assertGuard(t, err, "Only the originating office can re-release this document.")

	_, err = h.svc.ReRelease(ctx, origin, tx.DocumentNo, routing.ReReleaseParams{})
	require.ErrorIs(t, err, routing.ErrValidation)

	next, err := h.svc.ReRelease(ctx, origin, tx.DocumentNo, routing.ReReleaseParams{
		Subject:    "Budget call for 2026 (with annex)",
		Recipients: []routing.RecipientInput{def("R1"), def("R2")},
	})
	require.NoError(t, err)

	assert.NotEqual(t, tx.No, next.No)
	require.NotNil(t, next.ParentNo)
	assert.Equal(t, tx.No, *next.ParentNo)
	assert.Equal(t, routing.StatusProcessing, next.Status)
	assert.Equal(t, routing.DocumentActive, next.Document.Status)
	assert.Equal(t, "Budget call for 2026 (with annex)", next.Document.Subject)
	assert.Equal(t, []routing.LogStatus{routing.LogDocumentRevised, routing.LogReleased}, statuses(next.Logs))
	assert.ElementsMatch(t, []string{"R1", "R2"}, h.rec.Offices(routing.EventInitialRelease))

	for _, r := range next.Recipients {
		assert.True(t, r.IsActive, r.OfficeID)
	}

	versions := h.repo.Versions(tx.DocumentNo)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Number)
	assert.Equal(t, "Budget call for 2026", versions[0].Subject)

	prev, err := h.svc.Get(ctx, tx.No)
	require.NoError(t, err)
	assert.False(t, prev.IsActive)
	assert.Equal(t, routing.StatusReturned, prev.Status)

	// The superseded return no longer holds the document back.
	for _, id := range []string{"R1", "R2"} {
		_, err = h.svc.Receive(ctx, office(id), next.No, routing.ReceiveParams{})
		require.NoError(t, err)
	}

	assert.Equal(t, routing.DocumentCompleted, h.document(t, tx.DocumentNo).Status)
}

func TestService_ReReleaseAfterForward(t *testing.T) {
	type testCase struct {
		name       string
		draft      *routing.Draft
		forwarder  string
		receivers  []string
		recipients []routing.RecipientInput
		want       []string
	}

	tests := []testCase{
		{
			name:       "Single",
			draft:      draft(routing.ModeSingle, routingtest.ActionFollowUp, def("R1")),
			forwarder:  "R1",
			receivers:  []string{"R3"},
			recipients: []routing.RecipientInput{def("R1")},
			want:       []string{"R1"},
		},
		{
			name:       "Sequential",
			draft:      draft(routing.ModeSequential, routingtest.ActionFollowUp, seq("R1", 1), seq("R2", 2)),
			forwarder:  "R1",
			receivers:  []string{"R2", "R3"},
			recipients: []routing.RecipientInput{seq("R1", 1), seq("R2", 2)},
			want:       []string{"R1", "R2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			tx := h.released(t, tt.draft)

			_, err := h.svc.Receive(ctx, office(tt.forwarder), tx.No, routing.ReceiveParams{})
			require.NoError(t, err)
			_, err = h.svc.Forward(ctx, office(tt.forwarder), tx.No, routing.ForwardParams{Target: routing.Office{ID: "R3", Name: "R3 Office"}})
			require.NoError(t, err)

			for _, id := range tt.receivers {
				_, err = h.svc.Receive(ctx, office(id), tx.No, routing.ReceiveParams{})
				require.NoError(t, err)
			}

			_, err = h.svc.ReturnToSender(ctx, office("R3"), tx.No, routing.ReturnParams{Reason: "wrong office"})
			require.NoError(t, err)

			// The reshaped registry is not carried over implicitly.
			_, err = h.svc.ReRelease(ctx, origin, tx.DocumentNo, routing.ReReleaseParams{})
			require.ErrorIs(t, err, routing.ErrValidation)

			next, err := h.svc.ReRelease(ctx, origin, tx.DocumentNo, routing.ReReleaseParams{Recipients: tt.recipients})
			require.NoError(t, err)
			assert.Equal(t, routing.StatusProcessing, next.Status)

			var got []string
			for _, r := range next.Recipients {
				got = append(got, r.OfficeID)
			}

			assert.ElementsMatch(t, tt.want, got)

			versions := h.repo.Versions(tx.DocumentNo)
			require.Len(t, versions, 1)
			assert.Len(t, versions[0].Recipients, len(tt.want)+1)
		})
	}
}

func TestService_Copy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	d := draft(routing.ModeSingle, routingtest.ActionFollowUp, def("R1"))
	d.AllowCopy = true
	d.AddSignatory(routing.Signatory{Role: "Approved by", EmployeeName: "A. Reyes", OfficeName: "Records Office"})

	tx := h.released(t, d)

	_, err := h.svc.Copy(ctx, office("R1"), tx.DocumentNo, routing.CopyParams{})
	assertGuard(t, err, "Only the originating office can copy this document.")

	cp, err := h.svc.Copy(ctx, origin, tx.DocumentNo, routing.CopyParams{})
	require.NoError(t, err)
	assert.NotEqual(t, tx.DocumentNo, cp.DocumentNo)
	assert.Equal(t, routing.StatusDraft, cp.Status)
	assert.Equal(t, routing.DocumentDraft, cp.Document.Status)
	require.NotNil(t, cp.ParentNo)
	assert.Equal(t, tx.No, *cp.ParentNo)
	assert.Equal(t, d.Signatories, cp.Document.Signatories)
	require.Len(t, cp.Recipients, 1)
	assert.Equal(t, "R1", cp.Recipients[0].OfficeID)
	assert.True(t, strings.HasSuffix(cp.Logs[0].Activity, tx.DocumentNo))

	other, err := h.svc.Copy(ctx, origin, tx.DocumentNo, routing.CopyParams{Recipients: []routing.RecipientInput{def("R7")}})
	require.NoError(t, err)
	require.Len(t, other.Recipients, 1)
	assert.Equal(t, "R7", other.Recipients[0].OfficeID)

	_, err = h.svc.Copy(ctx, origin, cp.DocumentNo, routing.CopyParams{})
	require.NoError(t, err)

	plain := h.released(t, draft(routing.ModeSingle, routingtest.ActionFollowUp, def("R1")))
	_, err = h.svc.Copy(ctx, origin, plain.DocumentNo, routing.CopyParams{})
	assertGuard(t, err, "This document does not allow copies.")
}

func TestService_Notes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tx := h.released(t, draft(routing.ModeMultiple, routingtest.ActionFollowUp, def("R1"), def("R2"), cc("R3")))

	_, err := h.svc.AddNote(ctx, origin, tx.DocumentNo, "   ")
	require.ErrorIs(t, err, routing.ErrValidation)

	_, err = h.svc.AddNote(ctx, office("R9"), tx.DocumentNo, "hello")
	assertGuard(t, err, "Only the originating office or an active recipient can add notes.")

	body := strings.Repeat("x", 150)

	note, err := h.svc.AddNote(ctx, office("R1"), tx.DocumentNo, body)
	require.NoError(t, err)
	assert.Equal(t, "R1", note.OfficeID)

	sent := h.rec.For(routing.EventNoteAdded)
	assert.ElementsMatch(t, []string{"ORIGIN", "R2"}, h.rec.Offices(routing.EventNoteAdded))
	require.NotEmpty(t, sent)
	assert.True(t, strings.HasSuffix(sent[0].Message, strings.Repeat("x", 100)+"..."))

	notes, err := h.svc.Notes(ctx, tx.DocumentNo)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, body, notes[0].Body)

	_, err = h.svc.Notes(ctx, "DOC-MISSING")
	require.ErrorIs(t, err, routing.ErrNotFound)

	_, err = h.svc.Close(ctx, origin, tx.DocumentNo, routing.CloseParams{})
	require.NoError(t, err)

	_, err = h.svc.AddNote(ctx, origin, tx.DocumentNo, "late")
	assertGuard(t, err, "Notes cannot be added to a closed document.")
}
