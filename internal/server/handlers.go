package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/podsearch/internal/models"
	"github.com/hyperjump/podsearch/internal/storage"
	"github.com/hyperjump/podsearch/internal/vector"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vector.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, vector.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vector.ErrNotBuilt), errors.Is(err, vector.ErrEmptyIndex):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.search(w, r, &query)
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	query := models.Query{Text: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "k must be an integer")
			return
		}
		query.K = k
	}
	s.search(w, r, &query)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, query *models.Query) {
	s.logger.Debug("search request", zap.String("query", query.Text), zap.Int("k", query.K))
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.fail(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetUtterance(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		s.respondError(w, http.StatusBadRequest, "index must be a non-negative integer")
		return
	}
	if s.storage == nil {
		s.respondError(w, http.StatusNotFound, "utterance not found")
		return
	}
	u, err := s.storage.GetUtterance(r.Context(), index)
	if err != nil {
		s.fail(w, "get utterance failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, u)
}

func (s *Server) handleGetEpisode(w http.ResponseWriter, r *http.Request) {
	uri, err := url.PathUnescape(chi.URLParam(r, "uri"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid episode uri")
		return
	}
	if s.storage == nil {
		s.respondError(w, http.StatusNotFound, "episode not found")
		return
	}
	ep, err := s.storage.GetEpisode(r.Context(), uri)
	if err != nil {
		s.fail(w, "get episode failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, ep)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Status(r.Context(), s.config.Storage.VectorPath, s.config.Storage.DatabasePath)
	if err != nil {
		s.fail(w, "status failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"index":      st.Index,
		"utterances": st.Utterances,
		"episodes":   st.Episodes,
		"disk":       st.Disk,
		"config":     s.config.Summary(),
	})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("rebuild requested", zap.String("path", s.config.Storage.VectorPath))
	if err := s.engine.Reload(r.Context(), s.config.Storage.VectorPath); err != nil {
		s.fail(w, "rebuild failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "rebuilt",
		"index":  s.engine.Index().Stats(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
