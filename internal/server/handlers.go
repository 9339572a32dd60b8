package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"yoga-guide/internal/models"
	"yoga-guide/internal/plan"
)

const (
	// HeaderPlanOutcome names the failure mode behind a served plan.
	HeaderPlanOutcome = "X-Plan-Outcome"
	HeaderPlanModel   = "X-Plan-Model"

	// OutcomeInvalidRequest is reported when the request body could not be
	// decoded and the default plan was served without generation.
	OutcomeInvalidRequest = "InvalidRequest"

	maxProfileBytes = 64 << 10
	readyTimeout    = 2 * time.Second
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	if !s.creds.HasAPIKey() {
		s.log.Error("plan requested without generation credential", map[string]interface{}{
			"requestId": RequestIDFromContext(r.Context()),
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Missing API Key"})
		return
	}

	profile, err := decodeProfile(r)
	if err != nil {
		s.log.Warn("invalid profile body, serving default plan", map[string]interface{}{
			"requestId": RequestIDFromContext(r.Context()),
			"error":     err.Error(),
		})
		w.Header().Set(HeaderPlanOutcome, OutcomeInvalidRequest)
		writeJSON(w, http.StatusOK, plan.DefaultPlan())
		return
	}

	res := s.plans.BuildPlan(r.Context(), profile)

	w.Header().Set(HeaderPlanOutcome, string(res.Outcome))
	if res.Model != "" {
		w.Header().Set(HeaderPlanModel, res.Model)
	}
	writeJSON(w, http.StatusOK, res.Plan)
}

// decodeProfile treats an empty body as an empty profile.
func decodeProfile(r *http.Request) (models.UserProfile, error) {
	var profile models.UserProfile
	if r.Body == nil {
		return profile, nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxProfileBytes))
	if err := dec.Decode(&profile); err != nil {
		if errors.Is(err, io.EOF) {
			return models.UserProfile{}, nil
		}
		return models.UserProfile{}, err
	}
	return profile, nil
}

type modelsResponse struct {
	Models []plan.ModelStats `json:"models"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	ids := s.plans.Models()

	if s.stats == nil {
		out := make([]plan.ModelStats, 0, len(ids))
		for _, id := range ids {
			out = append(out, plan.ModelStats{Model: id})
		}
		writeJSON(w, http.StatusOK, modelsResponse{Models: out})
		return
	}

	stats, err := s.stats.Stats(r.Context(), ids)
	if err != nil {
		s.log.Error("read model ledger", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "model stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: stats})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.fn(ctx); err != nil {
			results[c.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[c.name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
