package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/interview"
	"github.com/spigell/interview-analyzer/internal/logger"
)

const maxBodyBytes = 1 << 20

type analysisRequest struct {
	Transcripts []string `json:"transcripts" validate:"required,min=1"`
	Reference   string   `json:"reference" validate:"required"`
	Position    string   `json:"position" validate:"max=200"`
}

type generationRequest struct {
	JobPosition   string `json:"job_position" validate:"max=200"`
	NumCandidates *int   `json:"num_candidates" validate:"omitempty,min=1,max=10"`
}

func (r generationRequest) candidates() int {
	if r.NumCandidates == nil {
		return interview.DefaultCandidates
	}
	return *r.NumCandidates
}

func (r generationRequest) position() string {
	if r.JobPosition == "" {
		return interview.DefaultPosition
	}
	return r.JobPosition
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	provider := s.providers.Get(r.URL.Query().Get("provider"))
	service, err := evaluation.NewService(provider, s.evaluation, s.recorder, s.logger)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := service.Analyze(r.Context(), evaluation.Request{
		Transcripts: req.Transcripts,
		Reference:   req.Reference,
		Position:    req.Position,
	})
	if err != nil {
		s.failure(w, provider.Name(), "analysis", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleGenerations(w http.ResponseWriter, r *http.Request) {
	var req generationRequest
	if err := decodeBody(r, &req, true); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, extractValidationErrors(err))
		return
	}

	provider := s.providers.Get(r.URL.Query().Get("provider"))
	service, err := evaluation.NewService(provider, s.evaluation, s.recorder, s.logger)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	position := req.position()
	generated, err := interview.NewGenerator(provider, s.evaluation.Language, s.logger).
		Generate(r.Context(), position, req.candidates())
	if err != nil {
		s.failure(w, provider.Name(), "generation", err)
		return
	}

	result, err := service.Analyze(r.Context(), evaluation.Request{
		Transcripts: generated.Transcripts,
		Reference:   generated.Reference,
		Position:    position,
		Question:    generated.Question,
	})
	if err != nil {
		s.failure(w, provider.Name(), "analysis", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, result)
}

func (s *Server) handleEvaluations(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.recorder.(Lister)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "result log is not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := lister.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list evaluations", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}

	s.jsonResponse(w, http.StatusOK, entries)
}

func (s *Server) failure(w http.ResponseWriter, provider, op string, err error) {
	status := HTTPStatus(err)
	log := logger.WithFields(s.logger, zap.String(logger.FieldProvider, provider))
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Info(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	s.errorResponse(w, status, fmt.Sprintf("%s failed: %v", op, err))
}

// decodeBody decodes a JSON body into dst. An empty body is accepted only when
// allowEmpty is set, leaving dst at its zero value.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
