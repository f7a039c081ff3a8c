package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/detailflow/internal/core"
	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartOverhead is the slack allowed on top of the file size limit
// for multipart boundaries and headers.
const multipartOverhead = 1 << 20

// kindResponse is one entry of GET /api/kinds.
type kindResponse struct {
	core.KindInfo
	Fields []csvimport.TargetField `json:"fields"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.service.SessionCount(),
		"imports":  s.service.LimiterStatus(),
	})
}

func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	defs := s.service.Kinds()
	out := make([]kindResponse, len(defs))
	for i, d := range defs {
		out[i] = kindResponse{KindInfo: d.Info, Fields: d.Fields}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStartImport accepts a multipart upload in the "file" field.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	biz, err := businessID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	limit := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: exceeds %d bytes", csvimport.ErrFileTooLarge, limit))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: multipart: %v", errBadRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	view, err := s.service.StartImport(requestContext(r), chi.URLParam(r, "kind"), biz, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	biz, id, ok := s.sessionParams(w, r)
	if !ok {
		return
	}
	view, err := s.service.GetSession(biz, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	biz, id, ok := s.sessionParams(w, r)
	if !ok {
		return
	}

	var update core.MappingUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if update.Header == "" && update.Index == nil {
		s.respondError(w, r, fmt.Errorf("%w: header or index is required", errBadRequest))
		return
	}

	view, err := s.service.UpdateMapping(requestContext(r), biz, id, update)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	biz, id, ok := s.sessionParams(w, r)
	if !ok {
		return
	}
	preview, err := s.service.PreviewRecords(biz, id, parseIntParam(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	biz, id, ok := s.sessionParams(w, r)
	if !ok {
		return
	}
	view, err := s.service.CommitImport(requestContext(r), biz, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	biz, id, ok := s.sessionParams(w, r)
	if !ok {
		return
	}
	if err := s.service.DiscardSession(requestContext(r), biz, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	biz, err := businessID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	runs, err := s.service.History(r.Context(), biz, chi.URLParam(r, "kind"), parseIntParam(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// sessionParams reads the business header and the {id} path parameter.
// It writes the error response itself and reports false on failure.
func (s *Server) sessionParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	biz, err := businessID(r)
	if err != nil {
		s.respondError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, core.ErrSessionNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return biz, id, true
}

// parseIntParam parses a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
