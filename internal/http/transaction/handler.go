package transaction

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/doctrack/internal/http/render"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

type Handler struct {
	svc *routing.Service
}

func NewHandler(svc *routing.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/create", h.create)
	r.Post("/{no}/release", h.release)
	r.Post("/{no}/subsequent-release", h.subsequentRelease)
	r.Post("/{no}/receive", h.receive)
	r.Post("/{no}/done", h.done)
	r.Post("/{no}/forward", h.forward)
	r.Post("/{no}/return", h.returnToSender)
	r.Post("/{no}/reply", h.reply)
	r.Patch("/{no}/recipients", h.recipients)
	r.Get("/{no}/show", h.show)
	r.Get("/{no}/history", h.history)
	r.Get("/{no}/overdue", h.overdue)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := render.Decode(r, &req); err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	d, err := req.draft()
	if err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	tx, err := h.svc.Create(r.Context(), actor, d)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusCreated, ToResponse(tx))
}

// act decodes req, runs the action for the acting office and writes the
// refreshed transaction.
func act[T any](w http.ResponseWriter, r *http.Request, fn func(routing.Actor, string, T) (*routing.Transaction, error)) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	var req T
	if err := render.Decode(r, &req); err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	tx, err := fn(actor, chi.URLParam(r, "no"), req)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, ToResponse(tx))
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(actor routing.Actor, no string, req remarksRequest) (*routing.Transaction, error) {
		return h.svc.Release(r.Context(), actor, no, routing.ReleaseParams{Remarks: req.Remarks})
	})
}

func (h *Handler) subsequentRelease(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(actor routing.Actor, no string, req subsequentReleaseRequest) (*routing.Transaction, error) {
		return h.svc.SubsequentRelease(r.Context(), actor, no, routing.SubsequentReleaseParams{
			TargetOfficeID: req.TargetOfficeID,
			Remarks:        req.Remarks,
		})
	})
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(actor routing.Actor, no string, req remarksRequest) (*routing.Transaction, error) {
		return h.svc.Receive(r.Context(), actor, no, routing.ReceiveParams{Remarks: req.Remarks})
	})
}

func (h *Handler) done(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(actor routing.Actor, no string, req doneRequest) (*routing.Transaction, error) {
		return h.svc.MarkDone(r.Context(), actor, no, routing.DoneParams{
			Remarks: req.Remarks,
			Proof:   Attachments(req.Proof, routing.AttachmentProof),
		})
	})
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(actor routing.Actor, no string, req forwardRequest) (*routing.Transaction, error) {
		return h.svc.Forward(r.Context(), actor, no, routing.ForwardParams{
			Target:            routing.Office{ID: req.OfficeID, Name: req.OfficeName},
			ActionTaken:       req.ActionTaken,
			AssignedPersonnel: req.AssignedPersonnel,
			Remarks:           req.Remarks,
		})
	})
}

func (h *Handler) returnToSender(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(actor routing.Actor, no string, req returnRequest) (*routing.Transaction, error) {
		return h.svc.ReturnToSender(r.Context(), actor, no, routing.ReturnParams{Reason: req.Reason, Remarks: req.Remarks})
	})
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	var req replyRequest
	if err := render.Decode(r, &req); err != nil {
		render.BadRequest(w, r, err.Error())
		return
	}

	original, reply, err := h.svc.Reply(r.Context(), actor, chi.URLParam(r, "no"), routing.ReplyParams{
		Subject:     req.Subject,
		Remarks:     req.Remarks,
		ActionType:  req.ActionType,
		Recipients:  RecipientInputs(req.Recipients),
		Attachments: Attachments(req.Attachments, routing.AttachmentExtra),
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusCreated, replyResponse{Original: ToResponse(original), Reply: ToResponse(reply)})
}

func (h *Handler) recipients(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(actor routing.Actor, no string, req recipientsRequest) (*routing.Transaction, error) {
		return h.svc.ManageRecipients(r.Context(), actor, no, req.changes())
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	actor, ok := render.Actor(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Show(r.Context(), actor, chi.URLParam(r, "no"))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, showResponse{
		Transaction: ToResponse(view.Transaction),
		Affordances: affordancesResponse(view.Affordances),
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.History(r.Context(), chi.URLParam(r, "no"))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, toHistoryResponse(days))
}

func (h *Handler) overdue(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.svc.Overdue(r.Context(), chi.URLParam(r, "no"))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]overdueResponse, 0, len(statuses))
	for _, st := range statuses {
		resp = append(resp, overdueResponse(st))
	}

	slices.SortFunc(resp, func(a, b overdueResponse) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}

		return strings.Compare(a.OfficeID, b.OfficeID)
	})

	render.JSON(w, r, http.StatusOK, resp)
}
