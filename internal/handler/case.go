package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/contentguard/internal/auth"
	"github.com/sakif/contentguard/internal/model"
	"github.com/sakif/contentguard/internal/service"
	"github.com/sakif/contentguard/internal/status"
)

// CaseHandler exposes the case lifecycle over HTTP. Every route here sits
// behind RequireAuth; the handler reads the resolved user ID from the
// request context and passes it to the service explicitly.
type CaseHandler struct {
	cases  *service.CaseService
	logger *slog.Logger
}

func NewCaseHandler(cases *service.CaseService, logger *slog.Logger) *CaseHandler {
	return &CaseHandler{cases: cases, logger: logger}
}

// requesterID pulls the authenticated user out of the context, writing a
// 401 if it's missing. The bool mirrors the comma-ok idiom so call sites
// stay one line.
func requesterID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return "", false
	}
	return userID, true
}

type createCaseRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
}

// HandleCreate creates a new case.
//
// HTTP: POST /api/cases
// Body: {"title": "...", "description": "...", "priority": "normal"}
// Returns 201 with the created case.
func (h *CaseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	var req createCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid case JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	c, err := h.cases.CreateCase(r.Context(), userID, req.Title, req.Description, req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

type listCasesResponse struct {
	Cases  []model.Case  `json:"cases"`
	Counts status.Counts `json:"counts"`
}

// HandleList returns the requester's cases with the dashboard aggregate
// counts.
//
// HTTP: GET /api/cases
//
// The counts are recomputed from the case list on every call — they are a
// projection, not stored state, so the dashboard can never show a counter
// that disagrees with the list next to it.
func (h *CaseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	cases, err := h.cases.ListCases(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listCasesResponse{
		Cases:  cases,
		Counts: status.AggregateCounts(cases),
	})
}

// HandleGet returns one case.
//
// HTTP: GET /api/cases/{id}
// 404 for a missing case and for someone else's case alike.
func (h *CaseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	c, err := h.cases.GetCase(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

type updateStatusRequest struct {
	Status model.CaseStatus `json:"status"`
}

// HandleUpdateStatus moves a case to a new lifecycle status.
//
// HTTP: PATCH /api/cases/{id}
// Body: {"status": "filed"}
func (h *CaseHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	c, err := h.cases.UpdateStatus(r.Context(), r.PathValue("id"), userID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// HandleDelete removes a case and its targets.
//
// HTTP: DELETE /api/cases/{id}
// Returns 204 on success.
func (h *CaseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	if err := h.cases.DeleteCase(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addTargetsRequest struct {
	URLs []string `json:"urls"`
}

// HandleAddTargets attaches target URLs to a case.
//
// HTTP: POST /api/cases/{id}/targets
// Body: {"urls": ["https://...", ...]}
// Returns 201 with the created targets. One malformed URL fails the whole
// request with 400 and leaves the case unchanged.
func (h *CaseHandler) HandleAddTargets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	var req addTargetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	targets, err := h.cases.AddTargets(r.Context(), r.PathValue("id"), userID, req.URLs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, targets)
}

// HandleListTargets returns a case's targets.
//
// HTTP: GET /api/cases/{id}/targets
func (h *CaseHandler) HandleListTargets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	targets, err := h.cases.ListTargets(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, targets)
}
