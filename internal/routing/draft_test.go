package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
	"github.com/MrJamesThe3rd/doctrack/internal/routing/routingtest"
)

func TestDraft_Validate(t *testing.T) {
	type testCase struct {
		name    string
		edit    func(d *routing.Draft)
		wantErr bool
	}

	tests := []testCase{
		{name: "Valid", edit: func(d *routing.Draft) {}},
		{name: "NoSubject", edit: func(d *routing.Draft) { d.Subject = " " }, wantErr: true},
		{name: "NoDocumentType", edit: func(d *routing.Draft) { d.DocumentType = "" }, wantErr: true},
		{name: "NoActionType", edit: func(d *routing.Draft) { d.ActionType = "" }, wantErr: true},
		{name: "BadOrigin", edit: func(d *routing.Draft) { d.OriginType = "Pigeon" }, wantErr: true},
		{name: "BadMode", edit: func(d *routing.Draft) { d.Mode = "Broadcast" }, wantErr: true},
		{
			name:    "BadUrgency",
			edit:    func(d *routing.Draft) { d.Urgency = new(library.Urgency("Whenever")) },
			wantErr: true,
		},
		{
			name:    "SingleWithTwoDefaults",
			edit:    func(d *routing.Draft) { d.AddRecipient(def("R2")) },
			wantErr: true,
		},
		{
			name: "SingleWithCC",
			edit: func(d *routing.Draft) { d.AddRecipient(cc("R2")) },
		},
		{
			name: "SequentialNeedsSequences",
			edit: func(d *routing.Draft) {
				d.Mode = routing.ModeSequential
				d.AddRecipient(seq("R2", 2))
			},
			wantErr: true,
		},
		{
			name: "SequentialDuplicateSequence",
			edit: func(d *routing.Draft) {
				d.Mode = routing.ModeSequential
				d.AddRecipient(seq("R1", 1))
				d.AddRecipient(seq("R2", 1))
			},
			wantErr: true,
		},
		{
			name: "SequentialValid",
			edit: func(d *routing.Draft) {
				d.Mode = routing.ModeSequential
				d.AddRecipient(seq("R1", 1))
				d.AddRecipient(seq("R2", 2))
				d.AddRecipient(cc("R3"))
			},
		},
		{
			name:    "BadRecipientType",
			edit:    func(d *routing.Draft) { d.AddRecipient(routing.RecipientInput{OfficeID: "R2", Type: "to"}) },
			wantErr: true,
		},
		{
			name:    "NoRecipients",
			edit:    func(d *routing.Draft) { d.RemoveRecipient("R1") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft(routing.ModeSingle, routingtest.ActionFollowUp, def("R1"))
			tt.edit(d)

			err := d.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, routing.ErrValidation)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestDraft_Session(t *testing.T) {
	d := routing.NewDraft()
	assert.Equal(t, routing.OriginInternal, d.OriginType)
	assert.Equal(t, routing.ModeSingle, d.Mode)

	d.AddRecipient(def("R1"))
	d.AddRecipient(cc("R1"))
	require.Len(t, d.Recipients, 1)
	assert.Equal(t, routing.RecipientCC, d.Recipients[0].Type)

	d.Subject = "Leave request"
	d.AddSignatory(routing.Signatory{Role: "Noted by"})

	d.Reset()
	assert.Empty(t, d.Subject)
	assert.Empty(t, d.Recipients)
	assert.Empty(t, d.Signatories)
	assert.Equal(t, routing.ModeSingle, d.Mode)
}
