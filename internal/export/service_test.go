package export_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/doctrack/internal/export"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

type stubSource struct {
	doc *routing.Document
	txs []*routing.Transaction
	err error
}

func (s *stubSource) GetDocument(context.Context, string) (*routing.Document, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.doc, nil
}

func (s *stubSource) DocumentTransactions(context.Context, string) ([]*routing.Transaction, error) {
	return s.txs, nil
}

func storage(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer storage-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Path {
		case "/memo":
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `attachment; filename="signed memo.pdf"`)
			w.Write([]byte("memo content"))
		case "/scan":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png content"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

func document(attachments ...routing.Attachment) *routing.Document {
	return &routing.Document{
		No:           "DOC-1",
		DocumentType: "Memo",
		Subject:      "Budget call",
		Status:       routing.DocumentActive,
		OfficeName:   "Records",
		Attachments:  attachments,
	}
}

func TestService_Export(t *testing.T) {
	ts := storage(t)

	type testCase struct {
		name        string
		attachments []routing.Attachment
		wantFiles   []string
		wantErr     bool
	}

	tests := []testCase{
		{
			name: "content disposition name wins",
			attachments: []routing.Attachment{
				{ID: 1, Kind: routing.AttachmentMain, FileName: "memo.pdf", FilePath: ts.URL + "/memo"},
			},
			wantFiles: []string{"1_signed_memo.pdf"},
		},
		{
			name: "stored name gets extension from content type",
			attachments: []routing.Attachment{
				{ID: 2, Kind: routing.AttachmentProof, FileName: "scan", FilePath: ts.URL + "/scan"},
			},
			wantFiles: []string{"2_scan.png"},
		},
		{
			name: "local paths are listed but not downloaded",
			attachments: []routing.Attachment{
				{ID: 3, Kind: routing.AttachmentExtra, FileName: "local.pdf", FilePath: "uploads/local.pdf"},
			},
			wantFiles: []string{""},
		},
		{
			name: "storage error fails the export",
			attachments: []routing.Attachment{
				{ID: 4, Kind: routing.AttachmentExtra, FileName: "gone.pdf", FilePath: ts.URL + "/gone"},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			svc := export.NewService(&stubSource{doc: document(tc.attachments...)}, "storage-token")

			archive, err := svc.Export(context.Background(), "DOC-1", dir)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Len(t, archive.Items, len(tc.wantFiles))

			for i, want := range tc.wantFiles {
				if want == "" {
					assert.Empty(t, archive.Items[i].FilePath)
					continue
				}

				assert.Equal(t, want, filepath.Base(archive.Items[i].FilePath))
				assert.FileExists(t, archive.Items[i].FilePath)
			}

			assert.FileExists(t, filepath.Join(dir, "routing_slip.txt"))
		})
	}
}

func TestService_ExportMissingDocument(t *testing.T) {
	svc := export.NewService(&stubSource{err: routing.ErrNotFound}, "")

	_, err := svc.Export(context.Background(), "DOC-404", t.TempDir())
	assert.True(t, errors.Is(err, routing.ErrNotFound))
}

func TestRoutingSlip(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	archive := &export.Archive{
		Document: document(routing.Attachment{ID: 1, Kind: routing.AttachmentMain, FileName: "memo.pdf"}),
		Transactions: []*routing.Transaction{
			{
				No:       "TX-1",
				Type:     routing.TypeDefault,
				Mode:     routing.ModeSequential,
				Status:   routing.StatusProcessing,
				IsActive: true,
				Recipients: []*routing.Recipient{
					{OfficeName: "Budget", Type: routing.RecipientDefault, Sequence: new(1), IsActive: true},
					{OfficeName: "Legal", Type: routing.RecipientCC, IsActive: true},
					{OfficeName: "Removed", Type: routing.RecipientDefault, IsActive: false},
				},
				Logs: []*routing.LogEntry{
					{OfficeName: "Records", Status: routing.LogReleased, Remarks: "urgent", CreatedAt: at},
				},
			},
		},
		Items: []export.Item{
			{Attachment: routing.Attachment{Kind: routing.AttachmentMain, FileName: "memo.pdf"}, FilePath: "/tmp/x/1_memo.pdf"},
		},
	}

	slip := export.RoutingSlip(archive)

	for _, want := range []string{
		"Document DOC-1 | Memo | Active",
		"Subject: Budget call",
		"  -> Budget [default] #1",
		"  -> Legal [cc]",
		"  * 2026-03-02 09:30 | Records | Released | urgent",
		"  * main | memo.pdf | 1_memo.pdf",
	} {
		assert.Contains(t, slip, want)
	}

	assert.NotContains(t, slip, "Removed")
	assert.NotContains(t, slip, "superseded")
}
