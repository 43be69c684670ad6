package transaction

import (
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

type TransactionResponse struct {
	No         string                  `json:"transaction_no"`
	DocumentNo string                  `json:"document_no"`
	Type       routing.TransactionType `json:"transaction_type"`
	Routing    routing.Mode            `json:"routing"`
	Status     routing.Status          `json:"status"`
	Urgency    *library.Urgency        `json:"urgency_level,omitempty"`
	DueDate    *string                 `json:"due_date,omitempty"`
	OfficeID   string                  `json:"office_id"`
	OfficeName string                  `json:"office_name"`
	ParentNo   *string                 `json:"parent_transaction_no,omitempty"`
	IsActive   bool                    `json:"is_active"`
	CreatedAt  time.Time               `json:"created_at"`
	Document   *DocumentResponse       `json:"document,omitempty"`
	Recipients []recipientResponse     `json:"recipients"`
	Logs       []logResponse           `json:"logs"`
}

type DocumentResponse struct {
	No           string                 `json:"document_no"`
	DocumentType string                 `json:"document_type"`
	ActionType   string                 `json:"action_type"`
	OriginType   routing.OriginType     `json:"origin_type"`
	Subject      string                 `json:"subject"`
	Remarks      string                 `json:"remarks,omitempty"`
	Status       routing.DocumentStatus `json:"status"`
	OfficeID     string                 `json:"office_id"`
	OfficeName   string                 `json:"office_name"`
	CreatedBy    string                 `json:"created_by"`
	AllowCopy    bool                   `json:"allow_copy"`
	Signatories  []signatoryResponse    `json:"signatories,omitempty"`
	Attachments  []attachmentResponse   `json:"attachments,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type signatoryResponse struct {
	Role         string `json:"role"`
	EmployeeName string `json:"employee_name"`
	OfficeName   string `json:"office_name,omitempty"`
}

type attachmentResponse struct {
	ID            int64                  `json:"id"`
	TransactionNo string                 `json:"transaction_no,omitempty"`
	Kind          routing.AttachmentKind `json:"kind"`
	FileName      string                 `json:"file_name"`
	FilePath      string                 `json:"file_path"`
	OfficeID      string                 `json:"office_id"`
}

type recipientResponse struct {
	OfficeID   string                `json:"office_id"`
	OfficeName string                `json:"office_name"`
	Type       routing.RecipientType `json:"recipient_type"`
	Sequence   *int                  `json:"sequence,omitempty"`
	IsActive   bool                  `json:"is_active"`
}

type logResponse struct {
	ID                int64             `json:"id"`
	Status            routing.LogStatus `json:"status"`
	OfficeID          string            `json:"office_id"`
	OfficeName        string            `json:"office_name"`
	RoutedOfficeID    string            `json:"routed_office_id,omitempty"`
	RoutedOfficeName  string            `json:"routed_office_name,omitempty"`
	ActionTaken       string            `json:"action_taken,omitempty"`
	Activity          string            `json:"activity"`
	Remarks           string            `json:"remarks,omitempty"`
	Reason            string            `json:"reason,omitempty"`
	AssignedPersonnel string            `json:"assigned_personnel,omitempty"`
	UserName          string            `json:"user_name"`
	CreatedAt         time.Time         `json:"created_at"`
}

type affordancesResponse struct {
	IsOriginator         bool `json:"is_originator"`
	CanRelease           bool `json:"can_release"`
	CanReceive           bool `json:"can_receive"`
	CanMarkDone          bool `json:"can_mark_done"`
	CanForward           bool `json:"can_forward"`
	CanReturn            bool `json:"can_return"`
	CanReply             bool `json:"can_reply"`
	CanSubsequentRelease bool `json:"can_subsequent_release"`
	CanManageRecipients  bool `json:"can_manage_recipients"`
	CanClose             bool `json:"can_close"`
	CanReRelease         bool `json:"can_re_release"`
	CanCopy              bool `json:"can_copy"`
	IsMyTurn             bool `json:"is_my_turn"`
}

type showResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Affordances affordancesResponse `json:"affordances"`
}

type replyResponse struct {
	Original TransactionResponse `json:"original"`
	Reply    TransactionResponse `json:"reply"`
}

type historyDayResponse struct {
	Date    string                 `json:"date"`
	Entries []historyEntryResponse `json:"entries"`
}

type historyEntryResponse struct {
	Time string      `json:"time"`
	Log  logResponse `json:"log"`
}

type overdueResponse struct {
	OfficeID     string    `json:"office_id"`
	OfficeName   string    `json:"office_name"`
	ReceivedAt   time.Time `json:"received_at"`
	DueDate      time.Time `json:"due_date"`
	DaysUntilDue int       `json:"days_until_due"`
	IsOverdue    bool      `json:"is_overdue"`
}

func ToResponse(tx *routing.Transaction) TransactionResponse {
	resp := TransactionResponse{
		No:         tx.No,
		DocumentNo: tx.DocumentNo,
		Type:       tx.Type,
		Routing:    tx.Mode,
		Status:     tx.Status,
		Urgency:    tx.Urgency,
		OfficeID:   tx.OfficeID,
		OfficeName: tx.OfficeName,
		ParentNo:   tx.ParentNo,
		IsActive:   tx.IsActive,
		CreatedAt:  tx.CreatedAt,
		Recipients: make([]recipientResponse, 0, len(tx.Recipients)),
		Logs:       make([]logResponse, 0, len(tx.Logs)),
	}

	if tx.DueDate != nil {
		resp.DueDate = new(tx.DueDate.Format(time.DateOnly))
	}

	if tx.Document != nil {
		resp.Document = new(ToDocumentResponse(tx.Document))
	}

	for _, r := range tx.Recipients {
		resp.Recipients = append(resp.Recipients, recipientResponse{
			OfficeID:   r.OfficeID,
			OfficeName: r.OfficeName,
			Type:       r.Type,
			Sequence:   r.Sequence,
			IsActive:   r.IsActive,
		})
	}

	for _, l := range tx.Logs {
		resp.Logs = append(resp.Logs, toLogResponse(l))
	}

	return resp
}

func ToResponseList(txs []*routing.Transaction) []TransactionResponse {
	resp := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}

func ToDocumentResponse(doc *routing.Document) DocumentResponse {
	resp := DocumentResponse{
		No:           doc.No,
		DocumentType: doc.DocumentType,
		ActionType:   doc.ActionType,
		OriginType:   doc.OriginType,
		Subject:      doc.Subject,
		Remarks:      doc.Remarks,
		Status:       doc.Status,
		OfficeID:     doc.OfficeID,
		OfficeName:   doc.OfficeName,
		CreatedBy:    doc.CreatedByName,
		AllowCopy:    doc.AllowCopy,
		CreatedAt:    doc.CreatedAt,
	}

	for _, s := range doc.Signatories {
		resp.Signatories = append(resp.Signatories, signatoryResponse(s))
	}

	for _, a := range doc.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse{
			ID:            a.ID,
			TransactionNo: a.TransactionNo,
			Kind:          a.Kind,
			FileName:      a.FileName,
			FilePath:      a.FilePath,
			OfficeID:      a.OfficeID,
		})
	}

	return resp
}

func toLogResponse(l *routing.LogEntry) logResponse {
	return logResponse{
		ID:                l.ID,
		Status:            l.Status,
		OfficeID:          l.OfficeID,
		OfficeName:        l.OfficeName,
		RoutedOfficeID:    l.RoutedOfficeID,
		RoutedOfficeName:  l.RoutedOfficeName,
		ActionTaken:       l.ActionTaken,
		Activity:          l.Activity,
		Remarks:           l.Remarks,
		Reason:            l.Reason,
		AssignedPersonnel: l.AssignedPersonnel,
		UserName:          l.UserName,
		CreatedAt:         l.CreatedAt,
	}
}

func toHistoryResponse(days []routing.HistoryDay) []historyDayResponse {
	resp := make([]historyDayResponse, 0, len(days))

	for _, d := range days {
		day := historyDayResponse{Date: d.Date, Entries: make([]historyEntryResponse, 0, len(d.Entries))}
		for _, e := range d.Entries {
			day.Entries = append(day.Entries, historyEntryResponse{Time: e.Time, Log: toLogResponse(e.Entry)})
		}

		resp = append(resp, day)
	}

	return resp
}
