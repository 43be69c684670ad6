package export

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

// Source is the read side of the routing service an archive is built from.
type Source interface {
	GetDocument(ctx context.Context, no string) (*routing.Document, error)
	DocumentTransactions(ctx context.Context, documentNo string) ([]*routing.Transaction, error)
}

// Item is a single attachment with the local path it was downloaded to.
// FilePath is empty when the attachment is not reachable over HTTP.
type Item struct {
	Attachment routing.Attachment
	FilePath   string
}

// Archive is everything exported for one document.
type Archive struct {
	Document     *routing.Document
	Transactions []*routing.Transaction
	Items        []Item
}

// Service exports a document's attachments and its routing slip.
type Service struct {
	source   Source
	client   *http.Client
	apiToken string
}

// NewService creates a new export Service. apiToken, when set, is sent to the
// attachment storage.
func NewService(source Source, apiToken string) *Service {
	return &Service{
		source:   source,
		client:   &http.Client{Timeout: 30 * time.Second},
		apiToken: apiToken,
	}
}

// Export downloads the document's attachments into outputDir and writes the
// routing slip next to them.
func (s *Service) Export(ctx context.Context, documentNo, outputDir string) (*Archive, error) {
	doc, err := s.source.GetDocument(ctx, documentNo)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	txs, err := s.source.DocumentTransactions(ctx, documentNo)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	archive := &Archive{
		Document:     doc,
		Transactions: txs,
		Items:        make([]Item, 0, len(doc.Attachments)),
	}

	for _, a := range doc.Attachments {
		item := Item{Attachment: a}

		if isRemote(a.FilePath) {
			path, err := s.download(ctx, a, outputDir)
			if err != nil {
				return nil, fmt.Errorf("downloading attachment %d: %w", a.ID, err)
			}

			item.FilePath = path
		}

		archive.Items = append(archive.Items, item)
	}

	slip := filepath.Join(outputDir, "routing_slip.txt")
	if err := os.WriteFile(slip, []byte(RoutingSlip(archive)), 0o644); err != nil {
		return nil, fmt.Errorf("writing routing slip: %w", err)
	}

	return archive, nil
}

func isRemote(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}

	return u.Scheme == "http" || u.Scheme == "https"
}

func (s *Service) download(ctx context.Context, a routing.Attachment, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.FilePath, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, a.FilePath)
	}

	path := filepath.Join(dir, filename(resp, a))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// filename prefers the server's Content-Disposition, then the stored file
// name. Names are prefixed with the attachment id so two uploads called
// "scan.pdf" do not overwrite each other.
func filename(resp *http.Response, a routing.Attachment) string {
	name := a.FileName

	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}

	name = sanitize(filepath.Base(name))

	if filepath.Ext(name) == "" {
		ext := ".pdf"

		if exts, _ := mime.ExtensionsByType(resp.Header.Get("Content-Type")); len(exts) > 0 {
			ext = exts[0]
		}

		name += ext
	}

	return fmt.Sprintf("%d_%s", a.ID, name)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}

		return '_'
	}, s)
}

// RoutingSlip renders the document header, every transaction's recipients
// and log in order, and the attachment list.
func RoutingSlip(a *Archive) string {
	var sb strings.Builder

	doc := a.Document
	fmt.Fprintf(&sb, "Document %s | %s | %s\n", doc.No, doc.DocumentType, doc.Status)
	fmt.Fprintf(&sb, "Subject: %s\n", doc.Subject)
	fmt.Fprintf(&sb, "Origin: %s\n", doc.OfficeName)

	for _, tx := range a.Transactions {
		fmt.Fprintf(&sb, "\n%s (%s, %s) %s\n", tx.No, tx.Type, tx.Mode, tx.Status)

		if !tx.IsActive {
			sb.WriteString("  superseded\n")
		}

		for _, r := range tx.Recipients {
			if !r.IsActive {
				continue
			}

			line := fmt.Sprintf("  -> %s [%s]", r.OfficeName, r.Type)
			if r.Sequence != nil {
				line += fmt.Sprintf(" #%d", *r.Sequence)
			}

			sb.WriteString(line + "\n")
		}

		for _, l := range tx.Logs {
			line := fmt.Sprintf("  * %s | %s | %s", l.CreatedAt.Format("2006-01-02 15:04"), l.OfficeName, l.Status)
			if l.Remarks != "" {
				line += " | " + l.Remarks
			}

			sb.WriteString(line + "\n")
		}
	}

	if len(a.Items) > 0 {
		sb.WriteString("\nAttachments\n")
	}

	for _, item := range a.Items {
		file := "not downloaded"
		if item.FilePath != "" {
			file = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "  * %s | %s | %s\n", item.Attachment.Kind, item.Attachment.FileName, file)
	}

	return sb.String()
}
