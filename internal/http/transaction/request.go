package transaction

import (
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

type RecipientRequest struct {
	OfficeID   string `json:"office_id" validate:"required"`
	OfficeName string `json:"office_name" validate:"required"`
	Type       string `json:"recipient_type" validate:"required,oneof=default cc bcc"`
	Sequence   *int   `json:"sequence,omitempty" validate:"omitempty,min=1"`
}

type AttachmentRequest struct {
	Kind     string `json:"kind" validate:"omitempty,oneof=main attachment proof"`
	FileName string `json:"file_name" validate:"required"`
	FilePath string `json:"file_path" validate:"required"`
}

type signatoryRequest struct {
	Role         string `json:"role" validate:"required"`
	EmployeeName string `json:"employee_name" validate:"required"`
	OfficeName   string `json:"office_name"`
}

type createRequest struct {
	DocumentType string              `json:"document_type" validate:"required"`
	ActionType   string              `json:"action_type" validate:"required"`
	OriginType   string              `json:"origin_type" validate:"omitempty,oneof=Internal External Email"`
	Subject      string              `json:"subject" validate:"required"`
	Remarks      string              `json:"remarks"`
	AllowCopy    bool                `json:"allow_copy"`
	Routing      string              `json:"routing" validate:"required,oneof=Single Multiple Sequential"`
	Urgency      string              `json:"urgency_level" validate:"omitempty,oneof=Urgent High Normal Routine"`
	DueDate      string              `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Recipients   []RecipientRequest  `json:"recipients" validate:"required,min=1,dive"`
	Signatories  []signatoryRequest  `json:"signatories" validate:"dive"`
	Attachments  []AttachmentRequest `json:"attachments" validate:"dive"`
}

func (req createRequest) draft() (*routing.Draft, error) {
	d := routing.NewDraft()
	d.DocumentType = req.DocumentType
	d.ActionType = req.ActionType
	d.Subject = req.Subject
	d.Remarks = req.Remarks
	d.AllowCopy = req.AllowCopy
	d.Mode = routing.Mode(req.Routing)

	if req.OriginType != "" {
		d.OriginType = routing.OriginType(req.OriginType)
	}

	if req.Urgency != "" {
		d.Urgency = new(library.Urgency(req.Urgency))
	}

	if req.DueDate != "" {
		due, err := time.Parse(time.DateOnly, req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("due_date: %w", err)
		}

		d.DueDate = &due
	}

	for _, r := range req.Recipients {
		d.AddRecipient(r.Input())
	}

	for _, s := range req.Signatories {
		d.AddSignatory(routing.Signatory(s))
	}

	d.Attachments = Attachments(req.Attachments, routing.AttachmentExtra)

	return d, nil
}

func (r RecipientRequest) Input() routing.RecipientInput {
	return routing.RecipientInput{
		OfficeID:   r.OfficeID,
		OfficeName: r.OfficeName,
		Type:       routing.RecipientType(r.Type),
		Sequence:   r.Sequence,
	}
}

func RecipientInputs(reqs []RecipientRequest) []routing.RecipientInput {
	if len(reqs) == 0 {
		return nil
	}

	out := make([]routing.RecipientInput, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Input())
	}

	return out
}

// Attachments converts attachment metadata, defaulting the kind.
func Attachments(reqs []AttachmentRequest, kind routing.AttachmentKind) []routing.Attachment {
	if len(reqs) == 0 {
		return nil
	}

	out := make([]routing.Attachment, 0, len(reqs))

	for _, a := range reqs {
		k := kind
		if a.Kind != "" {
			k = routing.AttachmentKind(a.Kind)
		}

		out = append(out, routing.Attachment{Kind: k, FileName: a.FileName, FilePath: a.FilePath})
	}

	return out
}

type remarksRequest struct {
	Remarks string `json:"remarks"`
}

type subsequentReleaseRequest struct {
	TargetOfficeID string `json:"target_office_id" validate:"required"`
	Remarks        string `json:"remarks"`
}

type doneRequest struct {
	Remarks string              `json:"remarks"`
	Proof   []AttachmentRequest `json:"proof" validate:"dive"`
}

type forwardRequest struct {
	OfficeID          string `json:"office_id" validate:"required"`
	OfficeName        string `json:"office_name" validate:"required"`
	ActionTaken       string `json:"action_taken"`
	AssignedPersonnel string `json:"assigned_personnel"`
	Remarks           string `json:"remarks"`
}

type returnRequest struct {
	Reason  string `json:"reason" validate:"required"`
	Remarks string `json:"remarks"`
}

type replyRequest struct {
	Subject     string              `json:"subject"`
	Remarks     string              `json:"remarks"`
	ActionType  string              `json:"action_type"`
	Recipients  []RecipientRequest  `json:"recipients" validate:"dive"`
	Attachments []AttachmentRequest `json:"attachments" validate:"dive"`
}

type sequenceRequest struct {
	OfficeID string `json:"office_id" validate:"required"`
	Sequence int    `json:"sequence" validate:"min=1"`
}

type recipientsRequest struct {
	Add     []RecipientRequest `json:"add" validate:"dive"`
	Remove  []string           `json:"remove" validate:"dive,required"`
	Reorder []sequenceRequest  `json:"reorder" validate:"dive"`
}

func (req recipientsRequest) changes() routing.RecipientChanges {
	c := routing.RecipientChanges{
		Add:    RecipientInputs(req.Add),
		Remove: req.Remove,
	}

	for _, s := range req.Reorder {
		c.Reorder = append(c.Reorder, routing.SequenceChange{OfficeID: s.OfficeID, Sequence: s.Sequence})
	}

	return c
}
