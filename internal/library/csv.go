package library

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	enc "github.com/MrJamesThe3rd/doctrack/internal/encoding"
)

// layout names the header cells that identify an export.
type layout struct {
	name     string
	required []string
}

var (
	actionLayout = layout{
		name:     "action library",
		required: []string{"name", "type"},
	}

	documentTypeLayout = layout{
		name:     "document type library",
		required: []string{"name"},
	}
)

// colIndex maps a normalized header name to its column.
type colIndex map[string]int

func (c colIndex) cell(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// ParseActions reads an action library export. Rows before the header are
// skipped, so exports with a title block are accepted.
func ParseActions(r io.Reader) ([]*Action, error) {
	rows, cols, first, err := readLayout(r, actionLayout)
	if err != nil {
		return nil, err
	}

	var actions []*Action

	for i, row := range rows {
		rowNum := first + i + 1

		name := cols.cell(row, "name")
		if name == "" {
			continue
		}

		typ := ClassificationType(strings.ToUpper(cols.cell(row, "type")))
		if !typ.Valid() {
			return nil, fmt.Errorf("row %d: invalid classification %q", rowNum, cols.cell(row, "type"))
		}

		urgency, err := parseUrgency(cols.cell(row, "default_urgency_level"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		actions = append(actions, &Action{
			Name:             name,
			Type:             typ,
			ReplyIsTerminal:  parseFlag(cols.cell(row, "reply_is_terminal"), false),
			RequiresProof:    parseFlag(cols.cell(row, "requires_proof"), false),
			ProofDescription: cols.cell(row, "proof_description"),
			DefaultUrgency:   urgency,
			IsActive:         parseFlag(cols.cell(row, "is_active"), true),
		})
	}

	return actions, nil
}

// ParseDocumentTypes reads a document type library export.
func ParseDocumentTypes(r io.Reader) ([]*DocumentType, error) {
	rows, cols, first, err := readLayout(r, documentTypeLayout)
	if err != nil {
		return nil, err
	}

	var types []*DocumentType

	for i, row := range rows {
		name := cols.cell(row, "name")
		if name == "" {
			continue
		}

		urgency, err := parseUrgency(cols.cell(row, "default_urgency_level"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", first+i+1, err)
		}

		types = append(types, &DocumentType{
			Name:           name,
			DefaultUrgency: urgency,
			IsActive:       parseFlag(cols.cell(row, "is_active"), true),
		})
	}

	return types, nil
}

// readLayout decodes the input to UTF-8, sniffs the delimiter and locates the
// header row. It returns the data rows, the header columns and the 1-based
// line number of the header.
func readLayout(r io.Reader, l layout) ([][]string, colIndex, int, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	head, _ := br.Peek(1024)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(head)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read csv: %w", err)
	}

	for i, row := range rows {
		cols := make(colIndex, len(row))

		for j, cell := range row {
			if name := normalizeHeader(cell); name != "" {
				cols[name] = j
			}
		}

		if hasAll(cols, l.required) {
			return rows[i+1:], cols, i + 1, nil
		}
	}

	return nil, nil, 0, fmt.Errorf("no %s header found: expected columns %s", l.name, strings.Join(l.required, ", "))
}

func sniffDelimiter(head []byte) rune {
	if bytes.Count(head, []byte(";")) > bytes.Count(head, []byte(",")) {
		return ';'
	}

	return ','
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)

	switch s {
	case "action", "action_type", "document_type":
		return "name"
	case "classification":
		return "type"
	case "urgency", "default_urgency":
		return "default_urgency_level"
	case "isactive", "active":
		return "is_active"
	}

	return s
}

func hasAll(cols colIndex, names []string) bool {
	for _, n := range names {
		if _, ok := cols[n]; !ok {
			return false
		}
	}

	return true
}

func parseFlag(s string, fallback bool) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "x":
		return true
	case "0", "false", "no", "n":
		return false
	}

	return fallback
}

func parseUrgency(s string) (*Urgency, error) {
	if s == "" {
		return nil, nil
	}

	u := Urgency(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
	if !u.Valid() {
		return nil, fmt.Errorf("invalid urgency %q", s)
	}

	return &u, nil
}
