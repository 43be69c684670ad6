package routing

import (
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

type DocumentStatus string

const (
	DocumentDraft     DocumentStatus = "Draft"
	DocumentActive    DocumentStatus = "Active"
	DocumentReturned  DocumentStatus = "Returned"
	DocumentCompleted DocumentStatus = "Completed"
	DocumentClosed    DocumentStatus = "Closed"
)

type Status string

const (
	StatusDraft      Status = "Draft"
	StatusProcessing Status = "Processing"
	StatusReturned   Status = "Returned"
	StatusCompleted  Status = "Completed"
)

type TransactionType string

const (
	TypeDefault TransactionType = "Default"
	TypeReply   TransactionType = "Reply"
)

// Mode is the fan-out topology of a transaction.
type Mode string

const (
	ModeSingle     Mode = "Single"
	ModeMultiple   Mode = "Multiple"
	ModeSequential Mode = "Sequential"
)

func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeMultiple || m == ModeSequential
}

type RecipientType string

const (
	RecipientDefault RecipientType = "default"
	RecipientCC      RecipientType = "cc"
	RecipientBCC     RecipientType = "bcc"
)

func (t RecipientType) Valid() bool {
	return t == RecipientDefault || t == RecipientCC || t == RecipientBCC
}

type OriginType string

const (
	OriginInternal OriginType = "Internal"
	OriginExternal OriginType = "External"
	OriginEmail    OriginType = "Email"
)

func (o OriginType) Valid() bool {
	return o == OriginInternal || o == OriginExternal || o == OriginEmail
}

type AttachmentKind string

const (
	AttachmentMain  AttachmentKind = "main"
	AttachmentExtra AttachmentKind = "attachment"
	AttachmentProof AttachmentKind = "proof"
)

type Office struct {
	ID   string
	Name string
}

// Actor is the caller an action is performed on behalf of.
type Actor struct {
	UserID   string
	UserName string
	Office   Office
}

type Document struct {
	No            string
	DocumentType  string
	ActionType    string
	OriginType    OriginType
	Subject       string
	Remarks       string
	Status        DocumentStatus
	OfficeID      string
	OfficeName    string
	CreatedBy     string
	CreatedByName string
	AllowCopy     bool
	IsActive      bool
	Signatories   []Signatory
	Attachments   []Attachment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Signatory struct {
	Role         string
	EmployeeName string
	OfficeName   string
}

type Attachment struct {
	ID            int64
	TransactionNo string
	Kind          AttachmentKind
	FileName      string
	FilePath      string
	OfficeID      string
	CreatedAt     time.Time
}

type Transaction struct {
	No         string
	DocumentNo string
	Type       TransactionType
	Mode       Mode
	Status     Status
	Urgency    *library.Urgency
	DueDate    *time.Time
	OfficeID   string
	OfficeName string
	ParentNo   *string
	// IsActive is false once a re-release has superseded the transaction.
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time

	Document   *Document
	Recipients []*Recipient
	Logs       []*LogEntry
}

type Note struct {
	ID         int64
	DocumentNo string
	OfficeID   string
	OfficeName string
	UserID     string
	UserName   string
	Body       string
	CreatedAt  time.Time
}

// Version is the content of a document as it stood before a re-release.
type Version struct {
	DocumentNo string
	Number     int
	Subject    string
	Remarks    string
	Recipients []RecipientInput
	CreatedBy  string
	CreatedAt  time.Time
}
