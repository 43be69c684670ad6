package library

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/doctrack/internal/http/render"
	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

type Handler struct {
	svc *library.Service
}

func NewHandler(svc *library.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/actions", h.actions)
	r.Get("/document-types", h.documentTypes)
	r.Post("/actions/import", h.importActions)
	r.Post("/document-types/import", h.importDocumentTypes)
}

type actionResponse struct {
	Name             string                     `json:"name"`
	Type             library.ClassificationType `json:"type"`
	ReplyIsTerminal  bool                       `json:"reply_is_terminal"`
	RequiresProof    bool                       `json:"requires_proof"`
	ProofDescription string                     `json:"proof_description,omitempty"`
	DefaultUrgency   *library.Urgency           `json:"default_urgency_level,omitempty"`
	IsActive         bool                       `json:"is_active"`
}

type documentTypeResponse struct {
	Name           string           `json:"name"`
	DefaultUrgency *library.Urgency `json:"default_urgency_level,omitempty"`
	IsActive       bool             `json:"is_active"`
}

type importResponse struct {
	Imported int `json:"imported"`
}

func (h *Handler) actions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.svc.Actions(r.Context())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]actionResponse, 0, len(actions))
	for _, a := range actions {
		resp = append(resp, actionResponse{
			Name:             a.Name,
			Type:             a.Type,
			ReplyIsTerminal:  a.ReplyIsTerminal,
			RequiresProof:    a.RequiresProof,
			ProofDescription: a.ProofDescription,
			DefaultUrgency:   a.DefaultUrgency,
			IsActive:         a.IsActive,
		})
	}

	render.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) documentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.DocumentTypes(r.Context())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]documentTypeResponse, 0, len(types))
	for _, t := range types {
		resp = append(resp, documentTypeResponse{Name: t.Name, DefaultUrgency: t.DefaultUrgency, IsActive: t.IsActive})
	}

	render.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) importActions(w http.ResponseWriter, r *http.Request) {
	h.importCSV(w, r, h.svc.ImportActions)
}

func (h *Handler) importDocumentTypes(w http.ResponseWriter, r *http.Request) {
	h.importCSV(w, r, h.svc.ImportDocumentTypes)
}

// importCSV reads the "file" field of a multipart form and hands it to fn.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, r io.Reader) (int, error)) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		render.BadRequest(w, r, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		render.BadRequest(w, r, "file field is required")
		return
	}
	defer file.Close()

	n, err := fn(r.Context(), file)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusCreated, importResponse{Imported: n})
}
