package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"photosynthesis-lab/internal/app"
	"photosynthesis-lab/internal/domain"
	"photosynthesis-lab/internal/engine"
	"photosynthesis-lab/internal/logging"

	"github.com/go-chi/chi/v5"
)

type RESTHandler struct {
	service *app.LabService
}

func NewRESTHandler(service *app.LabService) *RESTHandler {
	return &RESTHandler{service: service}
}

type openRequest struct {
	ContentID string `json:"contentId"`
}

type actionResponse struct {
	Applied  bool               `json:"applied"`
	Snapshot domain.LabSnapshot `json:"snapshot"`
}

type rateResponse struct {
	Inputs             domain.EnvironmentalInputs `json:"inputs"`
	Rate               domain.RateResult          `json:"rate"`
	Hints              domain.FactorHints         `json:"hints"`
	EmissionIntervalMS int64                      `json:"emissionIntervalMs"`
}

// Rate evaluates the rate model for query inputs without opening a workspace.
// Missing inputs take their default values; out-of-range ones are clamped.
func (h *RESTHandler) Rate(w http.ResponseWriter, r *http.Request) {
	inputs := engine.DefaultInputs
	q := r.URL.Query()
	for name, dst := range map[string]*int{
		"light":       &inputs.Light,
		"water":       &inputs.Water,
		"temperature": &inputs.Temperature,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = v
	}
	inputs = engine.ClampInputs(inputs)
	rate := engine.ComputeRate(inputs)
	writeJSON(w, http.StatusOK, rateResponse{
		Inputs:             inputs,
		Rate:               rate,
		Hints:              engine.Hints(inputs),
		EmissionIntervalMS: engine.EmissionInterval(rate.Value).Milliseconds(),
	})
}

// Content serves the learner-facing view of a content document.
func (h *RESTHandler) Content(w http.ResponseWriter, r *http.Request) {
	content, err := h.service.Content(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, content.View())
}

func (h *RESTHandler) OpenWorkspace(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snap, err := h.service.Open(r.Context(), req.ContentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *RESTHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ApplyAction runs one action. An action whose preconditions are not met is
// answered with 200 and applied=false.
func (h *RESTHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	var action domain.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid action body")
		return
	}
	snap, applied, err := h.service.Apply(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Applied: applied, Snapshot: snap})
}

func (h *RESTHandler) CloseWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWorkspaceNotFound), errors.Is(err, domain.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorPayload struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
