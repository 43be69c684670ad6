package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

func rcpt(office string, typ routing.RecipientType, active bool, seq ...int) *routing.Recipient {
	r := &routing.Recipient{OfficeID: office, OfficeName: office, Type: typ, IsActive: active}
	if len(seq) > 0 {
		r.Sequence = new(seq[0])
	}

	return r
}

func entry(office string, status routing.LogStatus) *routing.LogEntry {
	return &routing.LogEntry{OfficeID: office, Status: status}
}

func TestCompute(t *testing.T) {
	type args struct {
		current    routing.Status
		mode       routing.Mode
		class      library.ClassificationType
		recipients []*routing.Recipient
		logs       []*routing.LogEntry
	}

	type testCase struct {
		name string
		args args
		want routing.Status
	}

	released := entry("ORIGIN", routing.LogReleased)

	tests := []testCase{
		{
			name: "ReturnedIsSticky",
			args: args{
				current:    routing.StatusReturned,
				mode:       routing.ModeSingle,
				class:      library.TypeFI,
				recipients: []*routing.Recipient{rcpt("R1", routing.RecipientDefault, true)},
				logs:       []*routing.LogEntry{released, entry("R1", routing.LogReceived)},
			},
			want: routing.StatusReturned,
		},
		{
			name: "NotReleasedIsDraft",
			args: args{
				current:    routing.StatusDraft,
				mode:       routing.ModeSingle,
				class:      library.TypeFI,
				recipients: []*routing.Recipient{rcpt("R1", routing.RecipientDefault, true)},
				logs:       []*routing.LogEntry{entry("ORIGIN", routing.LogProfiled)},
			},
			want: routing.StatusDraft,
		},
		{
			name: "SingleFIReceived",
			args: args{
				current:    routing.StatusProcessing,
				mode:       routing.ModeSingle,
				class:      library.TypeFI,
				recipients: []*routing.Recipient{rcpt("R1", routing.RecipientDefault, true)},
				logs:       []*routing.LogEntry{released, entry("R1", routing.LogReceived)},
			},
			want: routing.StatusCompleted,
		},
		{
			name: "SingleFAReceivedOnlyStillProcessing",
			args: args{
				current:    routing.StatusProcessing,
				mode:       routing.ModeSingle,
				class:      library.TypeFA,
				recipients: []*routing.Recipient{rcpt("R1", routing.RecipientDefault, true)},
				logs:       []*routing.LogEntry{released, entry("R1", routing.LogReceived)},
			},
			want: routing.StatusProcessing,
		},
		{
			name: "MultipleFIOneMissing",
			args: args{
				current: routing.StatusProcessing,
				mode:    routing.ModeMultiple,
				class:   library.TypeFI,
				recipients: []*routing.Recipient{
					rcpt("R1", routing.RecipientDefault, true),
					rcpt("R2", routing.RecipientDefault, true),
				},
				logs: []*routing.LogEntry{released, entry("R1", routing.LogReceived)},
			},
			want: routing.StatusProcessing,
		},
		{
			name: "CCNeverBlocks",
			args: args{
				current: routing.StatusProcessing,
				mode:    routing.ModeMultiple,
				class:   library.TypeFI,
				recipients: []*routing.Recipient{
					rcpt("R1", routing.RecipientDefault, true),
					rcpt("R3", routing.RecipientCC, true),
					rcpt("R4", routing.RecipientBCC, true),
				},
				logs: []*routing.LogEntry{released, entry("R1", routing.LogReceived)},
			},
			want: routing.StatusCompleted,
		},
		{
			name: "InactiveDefaultIgnored",
			args: args{
				current: routing.StatusProcessing,
				mode:    routing.ModeMultiple,
				class:   library.TypeFA,
				recipients: []*routing.Recipient{
					rcpt("R1", routing.RecipientDefault, true),
					rcpt("R2", routing.RecipientDefault, false),
				},
				logs: []*routing.LogEntry{released, entry("R1", routing.LogReceived), entry("R1", routing.LogDone)},
			},
			want: routing.StatusCompleted,
		},
		{
			name: "SequentialWithReturnNeverCompletes",
			args: args{
				current: routing.StatusProcessing,
				mode:    routing.ModeSequential,
				class:   library.TypeFI,
				recipients: []*routing.Recipient{
					rcpt("R1", routing.RecipientDefault, true, 1),
				},
				logs: []*routing.LogEntry{
					released,
					entry("R2", routing.LogReturnedToSender),
					entry("R1", routing.LogReceived),
				},
			},
			want: routing.StatusProcessing,
		},
		{
			name: "ClosedLogCompletes",
			args: args{
				current:    routing.StatusProcessing,
				mode:       routing.ModeSingle,
				class:      library.TypeFA,
				recipients: []*routing.Recipient{rcpt("R1", routing.RecipientDefault, true)},
				logs:       []*routing.LogEntry{released, entry("ORIGIN", routing.LogClosed)},
			},
			want: routing.StatusCompleted,
		},
		{
			name: "NobodyLeftAfterDone",
			args: args{
				current:    routing.StatusProcessing,
				mode:       routing.ModeSingle,
				class:      library.TypeFA,
				recipients: []*routing.Recipient{rcpt("R1", routing.RecipientDefault, false)},
				logs:       []*routing.LogEntry{released, entry("R1", routing.LogReceived), entry("R1", routing.LogDone)},
			},
			want: routing.StatusCompleted,
		},
		{
			name: "NobodyLeftAfterRemoval",
			args: args{
				current:    routing.StatusProcessing,
				mode:       routing.ModeMultiple,
				class:      library.TypeFA,
				recipients: []*routing.Recipient{rcpt("R1", routing.RecipientDefault, false)},
				logs:       []*routing.LogEntry{released, entry("ORIGIN", routing.LogRecipientRemoved)},
			},
			want: routing.StatusProcessing,
		},
		{
			name: "NobodyLeftAfterSubsequentReleaseToCC",
			args: args{
				current: routing.StatusProcessing,
				mode:    routing.ModeMultiple,
				class:   library.TypeFA,
				recipients: []*routing.Recipient{
					rcpt("R1", routing.RecipientDefault, false),
					rcpt("R2", routing.RecipientDefault, false),
					rcpt("R3", routing.RecipientCC, true),
				},
				logs: []*routing.LogEntry{
					released,
					entry("R1", routing.LogReceived),
					entry("R1", routing.LogDone),
					entry("R2", routing.LogReceived),
					entry("R2", routing.LogReleased),
				},
			},
			want: routing.StatusProcessing,
		},
		{
			name: "NobodyLeftAfterAddThenDone",
			args: args{
				current: routing.StatusProcessing,
				mode:    routing.ModeMultiple,
				class:   library.TypeFA,
				recipients: []*routing.Recipient{
					rcpt("R1", routing.RecipientDefault, false),
					rcpt("R2", routing.RecipientDefault, false),
				},
				logs: []*routing.LogEntry{
					released,
					entry("ORIGIN", routing.LogRecipientAdded),
					entry("R2", routing.LogReceived),
					entry("R2", routing.LogDone),
				},
			},
			want: routing.StatusCompleted,
		},
		{
			name: "SingleChecksFirstBySequence",
			args: args{
				current: routing.StatusProcessing,
				mode:    routing.ModeSingle,
				class:   library.TypeFI,
				recipients: []*routing.Recipient{
					rcpt("R2", routing.RecipientDefault, true, 2),
					rcpt("R1", routing.RecipientDefault, true, 1),
				},
				logs: []*routing.LogEntry{released, entry("R1", routing.LogReceived)},
			},
			want: routing.StatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := routing.Compute(tt.args.current, tt.args.mode, tt.args.class, tt.args.recipients, tt.args.logs)
			assert.Equal(t, tt.want, got)

			// No new input, no new answer.
			assert.Equal(t, got, routing.Compute(got, tt.args.mode, tt.args.class, tt.args.recipients, tt.args.logs))
		})
	}
}

func TestFulfilled(t *testing.T) {
	logs := []*routing.LogEntry{
		entry("R1", routing.LogReceived),
		entry("R2", routing.LogReceived),
		entry("R2", routing.LogForwarded),
		entry("R3", routing.LogReturnedToSender),
	}

	assert.True(t, routing.Fulfilled(library.TypeFI, "R1", logs))
	assert.False(t, routing.Fulfilled(library.TypeFA, "R1", logs))
	assert.True(t, routing.Fulfilled(library.TypeFA, "R2", logs))
	assert.True(t, routing.Fulfilled(library.TypeFA, "R3", logs))
	assert.False(t, routing.Fulfilled(library.TypeFI, "R4", logs))
}

func TestRollUp(t *testing.T) {
	tx := func(status routing.Status, active bool) *routing.Transaction {
		return &routing.Transaction{Status: status, IsActive: active}
	}

	type testCase struct {
		name    string
		current routing.DocumentStatus
		txs     []*routing.Transaction
		want    routing.DocumentStatus
	}

	tests := []testCase{
		{
			name:    "AllCompleted",
			current: routing.DocumentActive,
			txs:     []*routing.Transaction{tx(routing.StatusCompleted, true), tx(routing.StatusCompleted, true)},
			want:    routing.DocumentCompleted,
		},
		{
			name:    "OneProcessingStaysActive",
			current: routing.DocumentActive,
			txs:     []*routing.Transaction{tx(routing.StatusCompleted, true), tx(routing.StatusProcessing, true)},
			want:    routing.DocumentActive,
		},
		{
			name:    "AnyReturned",
			current: routing.DocumentActive,
			txs:     []*routing.Transaction{tx(routing.StatusProcessing, true), tx(routing.StatusReturned, true)},
			want:    routing.DocumentReturned,
		},
		{
			name:    "ClosedAbsorbs",
			current: routing.DocumentClosed,
			txs:     []*routing.Transaction{tx(routing.StatusReturned, true)},
			want:    routing.DocumentClosed,
		},
		{
			name:    "SupersededIgnored",
			current: routing.DocumentActive,
			txs:     []*routing.Transaction{tx(routing.StatusReturned, false), tx(routing.StatusCompleted, true)},
			want:    routing.DocumentCompleted,
		},
		{
			name:    "NoTransactions",
			current: routing.DocumentDraft,
			want:    routing.DocumentDraft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, routing.RollUp(tt.current, tt.txs))
		})
	}
}
