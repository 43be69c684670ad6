package document

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/doctrack/internal/http/render"
	"github.com/MrJamesThe3rd/doctrack/internal/http/transaction"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

type Handler struct {
	svc *routing.Service
}

func NewHandler(svc *routing.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/received", h.received)
	r.Post("/close-bulk", h.closeBulk)
	r.Post("/{no}/close", h.close)
	r.Post("/{no}/re-release", h.reRelease)
	r.Post("/{no}/copy", h.copy)
	r.Get("/{no}/notes", h.notes)
	r.Post("/{no}/notes", h.addNote)
}

type closeRequest struct {
	Remarks string `json:"remarks"`
}

type closeBulkRequest struct {
	DocumentNos []string `json:"document_nos" validate:"required,min=1,dive,required"`
	Remarks     string   `json:"remarks"`
}

type reReleaseRequest struct {
	Subject    string                         `json:"subject"`
	Remarks    string                         `json:"remarks"`
	Routing    string                         `json:"routing" validate:"omitempty,oneof=Single Multiple Sequential"`
	Recipients []transaction.RecipientRequest `json:"recipients" validate:"required,min=1,dive"`
}

type copyRequest struct {
	Recipients []transaction.RecipientRequest `json:"recipients" validate:"dive"`
}

type noteRequest struct {
	Note string `json:"note" validate:"required"`
}

type noteResponse struct {
	ID         int64     `json:"id"`
	DocumentNo string    `json:"document_no"`
	OfficeID   string    `json:"office_id"`
	OfficeName string    `json:"office_name"`
	UserName   string    `json:"user_name"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

func toNoteResponse(n *routing.Note) noteResponse {
	return noteResponse{
		ID:         n.ID,
		DocumentNo: n.DocumentNo,
		OfficeID:   n.OfficeID,
		OfficeName: n.OfficeName,
		UserName:   n.UserName,
		Note:       n.Body,
		CreatedAt:  n.CreatedAt,
	}
}

func filterFrom(r *http.Request, officeID string) routing.DocumentFilter {
	filter := routing.DocumentFilter{
		OfficeID: officeID,
		Search:   r.URL.Query().Get("search"),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(routing.DocumentStatus(s))
	}

	return filter
}

// list returns the documents the acting office originated.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	docs, err := h.svc.ListDocuments(r.Context(), filterFrom(r, actor.Office.ID))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]transaction.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, transaction.ToDocumentResponse(doc))
	}

	render.JSON(w, r, http.StatusOK, resp)
}

// received returns live transactions routed to the acting office.
func (h *Handler) received(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	txs, err := h.svc.ListReceived(r.Context(), filterFrom(r, actor.Office.ID))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, transaction.ToResponseList(txs))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	var req closeRequest
	if err := render.Decode(r, &req); err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	doc, err := h.svc.Close(r.Context(), actor, chi.URLParam(r, "no"), routing.CloseParams{Remarks: req.Remarks})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, transaction.ToDocumentResponse(doc))
}

func (h *Handler) closeBulk(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	var req closeBulkRequest
	if err := render.Decode(r, &req); err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	docs, err := h.svc.CloseBulk(r.Context(), actor, req.DocumentNos, routing.CloseParams{Remarks: req.Remarks})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]transaction.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, transaction.ToDocumentResponse(doc))
	}

	render.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) reRelease(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	var req reReleaseRequest
	if err := render.Decode(r, &req); err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	tx, err := h.svc.ReRelease(r.Context(), actor, chi.URLParam(r, "no"), routing.ReReleaseParams{
		Subject:    req.Subject,
		Remarks:    req.Remarks,
		Recipients: transaction.RecipientInputs(req.Recipients),
		Mode:       routing.Mode(req.Routing),
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusCreated, transaction.ToResponse(tx))
}

func (h *Handler) copy(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	var req copyRequest
	if err := render.Decode(r, &req); err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	tx, err := h.svc.Copy(r.Context(), actor, chi.URLParam(r, "no"), routing.CopyParams{
		Recipients: transaction.RecipientInputs(req.Recipients),
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusCreated, transaction.ToResponse(tx))
}

func (h *Handler) notes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Notes(r.Context(), chi.URLParam(r, "no"))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, toNoteResponse(n))
	}

	render.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := render.Decode(r, &req); err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	note, err := h.svc.AddNote(r.Context(), actor, chi.URLParam(r, "no"), req.Note)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusCreated, toNoteResponse(note))
}
