package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/usecase"
)

const (
	defaultPageLimit = 10
)

type LeadHandler struct {
	Leads  usecase.LeadManager
	Logger *zap.Logger
}

func NewLeadHandler(leads usecase.LeadManager, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{Leads: leads, Logger: logger}
}

// List serves GET /leads?page=&limit=&stage=&search=&company=.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, perr := intParam(q.Get("page"), 1)
	limit, lerr := intParam(q.Get("limit"), defaultPageLimit)
	if perr != nil || lerr != nil {
		var details []usecase.ValidationError
		if perr != nil {
			details = append(details, usecase.ValidationError{Field: "page", Message: "must be an integer"})
		}
		if lerr != nil {
			details = append(details, usecase.ValidationError{Field: "limit", Message: "must be an integer"})
		}
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "validation failed", details)
		return
	}

	out, err := h.Leads.Page(r.Context(), userID, usecase.PageLeadsInput{
		Page:    page,
		Limit:   limit,
		Stage:   q.Get("stage"),
		Search:  q.Get("search"),
		Company: q.Get("company"),
	})
	if err != nil {
		handleError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	var in usecase.CreateLeadInput
	if !decodeJSON(w, r, &in) {
		return
	}

	lead, err := h.Leads.Create(r.Context(), userID, in)
	if err != nil {
		handleError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	lead, err := h.Leads.Get(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var in usecase.UpdateLeadInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = id

	lead, err := h.Leads.Update(r.Context(), userID, in)
	if err != nil {
		handleError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	lead, err := h.Leads.Delete(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Lead deleted successfully",
		"lead":    lead,
	})
}

// target resolves the caller and the {id} path parameter. Malformed ids get a 400
// here; the chat tools report them as not found instead.
func (h *LeadHandler) target(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := ownerID(w, r)
	if !ok {
		return "", "", false
	}

	in := usecase.LeadIDInput{ID: chi.URLParam(r, "id")}
	if errs := usecase.Validate(in); len(errs) > 0 {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "Invalid lead ID", errs)
		return "", "", false
	}
	return userID, in.ID, true
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
