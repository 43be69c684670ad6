package library_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

func TestService_Action(t *testing.T) {
	type testCase struct {
		name      string
		setupMock func(m *library.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Active",
			setupMock: func(m *library.MockRepository) {
				m.EXPECT().GetAction(gomock.Any(), "Approval").
					Return(&library.Action{Name: "Approval", Type: library.TypeFA, IsActive: true}, nil)
			},
		},
		{
			name: "Inactive",
			setupMock: func(m *library.MockRepository) {
				m.EXPECT().GetAction(gomock.Any(), "Approval").
					Return(&library.Action{Name: "Approval", Type: library.TypeFA}, nil)
			},
			wantErr: library.ErrNotFound,
		},
		{
			name: "Missing",
			setupMock: func(m *library.MockRepository) {
				m.EXPECT().GetAction(gomock.Any(), "Approval").Return(nil, library.ErrNotFound)
			},
			wantErr: library.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := library.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := library.NewService(repo)
			got, err := svc.Action(context.Background(), "Approval")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Approval", got.Name)
		})
	}
}

func TestService_ImportActions(t *testing.T) {
	csv := `Action Library Export
Generated;2026-03-01

Name;Type;Reply Is Terminal;Requires Proof;Default Urgency
Appropriate Action;FA;0;1;
Urgent Action;fa;no;yes;urgent
Your Information;FI;;;
`

	type testCase struct {
		name      string
		input     string
		setupMock func(m *library.MockRepository)
		wantCount int
		wantErr   bool
		invalid   bool
	}

	tests := []testCase{
		{
			name:  "Success",
			input: csv,
			setupMock: func(m *library.MockRepository) {
				m.EXPECT().
					UpsertActions(gomock.Any(), gomock.Len(3)).
					DoAndReturn(func(_ context.Context, actions []*library.Action) error {
						assert.Equal(t, "Appropriate Action", actions[0].Name)
						assert.True(t, actions[0].RequiresProof)
						assert.Nil(t, actions[0].DefaultUrgency)

						require.NotNil(t, actions[1].DefaultUrgency)
						assert.Equal(t, library.UrgencyUrgent, *actions[1].DefaultUrgency)
						assert.Equal(t, library.TypeFA, actions[1].Type)

						assert.Equal(t, library.TypeFI, actions[2].Type)
						assert.True(t, actions[2].IsActive)

						return nil
					})
			},
			wantCount: 3,
		},
		{
			name:    "NoHeader",
			input:   "foo;bar\n1;2\n",
			wantErr: true,
			invalid: true,
		},
		{
			name:    "BadClassification",
			input:   "name,type\nApproval,XX\n",
			wantErr: true,
			invalid: true,
		},
		{
			name:  "RepoError",
			input: "name,type\nApproval,FA\n",
			setupMock: func(m *library.MockRepository) {
				m.EXPECT().UpsertActions(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := library.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := library.NewService(repo)
			n, err := svc.ImportActions(context.Background(), strings.NewReader(tt.input))

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.invalid, errors.Is(err, library.ErrInvalidImport))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, n)
		})
	}
}

func TestParseDocumentTypes_Windows1252(t *testing.T) {
	text := "Document Type,Urgency\nOfício,Normal\nMemorando,\n"

	encoded, err := charmap.Windows1252.NewEncoder().String(text)
	require.NoError(t, err)

	types, err := library.ParseDocumentTypes(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, types, 2)

	assert.Equal(t, "Ofício", types[0].Name)
	require.NotNil(t, types[0].DefaultUrgency)
	assert.Equal(t, library.UrgencyNormal, *types[0].DefaultUrgency)
	assert.Nil(t, types[1].DefaultUrgency)
}

func TestUrgency_Days(t *testing.T) {
	assert.Equal(t, 1, library.UrgencyUrgent.Days())
	assert.Equal(t, 3, library.UrgencyHigh.Days())
	assert.Equal(t, 5, library.UrgencyNormal.Days())
	assert.Equal(t, 7, library.UrgencyRoutine.Days())
}
