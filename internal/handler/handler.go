// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workshophq/workshop-backend/internal/middleware"
	"github.com/workshophq/workshop-backend/internal/model"
	"github.com/workshophq/workshop-backend/internal/service"
)

// Handler holds all HTTP handlers for the workshop API.
type Handler struct {
	workshops     *service.WorkshopService
	registrations *service.RegistrationService
	feedback      *service.FeedbackService
	attendees     *service.AttendeeService
	reconciler    *service.StateReconciler
	inv           *middleware.Invalidator // nil when the cache is disabled
}

// New constructs a Handler. inv may be nil when no response cache is
// configured.
func New(
	workshops *service.WorkshopService,
	registrations *service.RegistrationService,
	feedback *service.FeedbackService,
	attendees *service.AttendeeService,
	reconciler *service.StateReconciler,
	inv *middleware.Invalidator,
) *Handler {
	return &Handler{
		workshops:     workshops,
		registrations: registrations,
		feedback:      feedback,
		attendees:     attendees,
		reconciler:    reconciler,
		inv:           inv,
	}
}

// Routes builds the full route tree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", HealthCheck)

	r.Route("/workshops", func(r chi.Router) {
		r.Post("/", h.CreateWorkshop)
		r.Get("/", h.ListWorkshops)
		r.Get("/upcoming", h.ListUpcoming)
		r.Get("/ongoing", h.ListOngoing)
		r.Get("/completed", h.ListCompleted)
		r.Get("/feedback", h.AllFeedback)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetWorkshop)
			r.Patch("/", h.EditWorkshop)
			r.Delete("/", h.DeleteWorkshop)
			r.Post("/register", h.Register)
			r.Delete("/registrations/{attendeeID}", h.Deregister)
			r.Get("/attendees", h.WorkshopAttendees)
			r.Get("/feedback", h.WorkshopFeedback)
			r.Post("/feedback", h.SubmitFeedback)
		})
	})

	r.Route("/attendees", func(r chi.Router) {
		r.Post("/", h.CreateAttendee)
		r.Get("/", h.ListAttendees)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetAttendee)
			r.Get("/workshops", h.RegisteredWorkshops)
			r.Get("/workshops/attended", h.AttendedWorkshops)
			r.Get("/workshops/pending-feedback", h.PendingFeedback)
		})
	})

	r.Post("/admin/reconcile", h.Reconcile)

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// respondError maps the engine's error kinds to HTTP status codes.
// Unknown errors become an opaque 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrAlreadyRegistered),
		errors.Is(err, model.ErrAlreadyDeleted),
		errors.Is(err, model.ErrAlreadySubmitted),
		errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrPastDate),
		errors.Is(err, model.ErrInvariantViolation),
		errors.Is(err, model.ErrIllegalTransition),
		errors.Is(err, model.ErrIllegalState),
		errors.Is(err, model.ErrInvalidRating),
		errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// purgeWorkshops invalidates cached workshop responses after a write.
func (h *Handler) purgeWorkshops(r *http.Request) {
	if h.inv != nil {
		h.inv.PurgeWorkshops(r.Context())
	}
}

func (h *Handler) purgeAttendees(r *http.Request) {
	if h.inv != nil {
		h.inv.PurgeAttendees(r.Context())
	}
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ─── Workshop handlers ────────────────────────────────────────────────────────

// CreateWorkshop handles POST /workshops
func (h *Handler) CreateWorkshop(w http.ResponseWriter, r *http.Request) {
	var req model.Workshop
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if _, err := h.workshops.Create(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}

	h.purgeWorkshops(r)
	writeJSON(w, http.StatusCreated, req)
}

// ListWorkshops handles GET /workshops
func (h *Handler) ListWorkshops(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workshops.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(ws))
}

// GetWorkshop handles GET /workshops/{id}
func (h *Handler) GetWorkshop(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workshops.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// EditWorkshop handles PATCH /workshops/{id}
func (h *Handler) EditWorkshop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch model.WorkshopPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.workshops.Edit(r.Context(), id, patch); err != nil {
		respondError(w, err)
		return
	}

	h.purgeWorkshops(r)
	ws, err := h.workshops.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// DeleteWorkshop handles DELETE /workshops/{id}
func (h *Handler) DeleteWorkshop(w http.ResponseWriter, r *http.Request) {
	if err := h.workshops.SoftDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	h.purgeWorkshops(r)
	w.WriteHeader(http.StatusNoContent)
}

// ListUpcoming handles GET /workshops/upcoming
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	h.listByState(w, r, h.workshops.Upcoming)
}

// ListOngoing handles GET /workshops/ongoing
func (h *Handler) ListOngoing(w http.ResponseWriter, r *http.Request) {
	h.listByState(w, r, h.workshops.Ongoing)
}

// ListCompleted handles GET /workshops/completed
func (h *Handler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	h.listByState(w, r, h.workshops.Completed)
}

func (h *Handler) listByState(w http.ResponseWriter, r *http.Request, list func(ctx context.Context) ([]model.Workshop, error)) {
	ws, err := list(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(ws))
}

// ─── Registration handlers ────────────────────────────────────────────────────

type registerRequest struct {
	AttendeeID string `json:"attendee_id"`
}

// Register handles POST /workshops/{id}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	workshopID := chi.URLParam(r, "id")

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.AttendeeID == "" {
		writeError(w, http.StatusBadRequest, "attendee_id is required")
		return
	}

	reg, err := h.registrations.Register(r.Context(), req.AttendeeID, workshopID)
	if err != nil {
		respondError(w, err)
		return
	}

	h.purgeWorkshops(r)
	writeJSON(w, http.StatusCreated, reg)
}

// Deregister handles DELETE /workshops/{id}/registrations/{attendeeID}
func (h *Handler) Deregister(w http.ResponseWriter, r *http.Request) {
	workshopID := chi.URLParam(r, "id")
	attendeeID := chi.URLParam(r, "attendeeID")

	if err := h.registrations.Deregister(r.Context(), attendeeID, workshopID); err != nil {
		respondError(w, err)
		return
	}

	h.purgeWorkshops(r)
	w.WriteHeader(http.StatusNoContent)
}

// WorkshopAttendees handles GET /workshops/{id}/attendees
func (h *Handler) WorkshopAttendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.registrations.WorkshopAttendees(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(attendees))
}

// ─── Feedback handlers ────────────────────────────────────────────────────────

type feedbackRequest struct {
	AttendeeID string `json:"attendee_id"`
	Rating     *int   `json:"rating"`
	Comment    string `json:"comment"`
}

// SubmitFeedback handles POST /workshops/{id}/feedback
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	workshopID := chi.URLParam(r, "id")

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.AttendeeID == "" {
		writeError(w, http.StatusBadRequest, "attendee_id is required")
		return
	}

	if err := h.feedback.Submit(r.Context(), req.AttendeeID, workshopID, req.Rating, req.Comment); err != nil {
		respondError(w, err)
		return
	}

	h.purgeWorkshops(r)
	w.WriteHeader(http.StatusNoContent)
}

// WorkshopFeedback handles GET /workshops/{id}/feedback
func (h *Handler) WorkshopFeedback(w http.ResponseWriter, r *http.Request) {
	agg, err := h.feedback.AggregateForWorkshop(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// AllFeedback handles GET /workshops/feedback
func (h *Handler) AllFeedback(w http.ResponseWriter, r *http.Request) {
	aggs, err := h.feedback.AggregateAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(aggs))
}

// ─── Attendee handlers ────────────────────────────────────────────────────────

// CreateAttendee handles POST /attendees
func (h *Handler) CreateAttendee(w http.ResponseWriter, r *http.Request) {
	var req model.Attendee
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if _, err := h.attendees.Create(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}

	h.purgeAttendees(r)
	writeJSON(w, http.StatusCreated, req)
}

// ListAttendees handles GET /attendees
func (h *Handler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.attendees.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(attendees))
}

// GetAttendee handles GET /attendees/{id}
func (h *Handler) GetAttendee(w http.ResponseWriter, r *http.Request) {
	a, err := h.attendees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// RegisteredWorkshops handles GET /attendees/{id}/workshops
func (h *Handler) RegisteredWorkshops(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registrations.RegisteredWorkshops(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(ws))
}

// AttendedWorkshops handles GET /attendees/{id}/workshops/attended
func (h *Handler) AttendedWorkshops(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registrations.AttendedWorkshops(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(ws))
}

// PendingFeedback handles GET /attendees/{id}/workshops/pending-feedback
func (h *Handler) PendingFeedback(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registrations.PendingFeedback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(ws))
}

// ─── Admin ────────────────────────────────────────────────────────────────────

// Reconcile handles POST /admin/reconcile
// Triggers a lifecycle reconciliation pass and reports the outcome.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reconciler.Run(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	h.purgeWorkshops(r)
	writeJSON(w, http.StatusOK, summary)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
