package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dataseg/data-segmentation-api/internal/apperr"
	"github.com/dataseg/data-segmentation-api/internal/gluejob"
	"github.com/dataseg/data-segmentation-api/internal/resultstore"
	"github.com/dataseg/data-segmentation-api/internal/s3util"
	"github.com/dataseg/data-segmentation-api/internal/validate"
)

// server holds the backend handles the endpoint handlers call into. Built
// once at cold start; substituted with fakes in tests.
type server struct {
	runner            *gluejob.Runner
	store             *resultstore.Store
	s3                s3util.API
	inferenceFunction string
}

func newServer(runner *gluejob.Runner, store *resultstore.Store, s3 s3util.API, inferenceFunction string) *server {
	return &server{
		runner:            runner,
		store:             store,
		s3:                s3,
		inferenceFunction: inferenceFunction,
	}
}

// routes builds the router for the four endpoints.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Post("/categorize", s.handleCategorize)
	r.Get("/job-status/{jobRunId}", s.handleJobStatus)
	r.Post("/segment", s.handleSegment)
	return r
}

// GET /
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"hello": "world"})
}

// decodeBody reads a JSON body into a generic map. An absent or empty body
// decodes to an empty map so required-field checks produce the message the
// client needs rather than a decode error.
func decodeBody(r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if r.Body == nil {
		return body, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperr.Validation("Invalid request body", "Request body must be a JSON object")
	}
	return body, nil
}

// validateSource runs the full input validation chain for an s3FilePath
// field: presence, path shape, and object existence.
func (s *server) validateSource(r *http.Request, body map[string]any) (string, error) {
	if err := validate.RequiredFields(body, "s3FilePath"); err != nil {
		return "", err
	}
	sourcePath, _ := body["s3FilePath"].(string)
	bucket, key, err := validate.SourcePath(sourcePath)
	if err != nil {
		return "", err
	}
	if err := s3util.EnsureObject(r.Context(), s.s3, bucket, key); err != nil {
		return "", err
	}
	return sourcePath, nil
}

// POST /categorize
// Body: {"s3FilePath": "s3://bucket/path/to/file"}
func (s *server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		respondError(w, err)
		return
	}

	sourcePath, err := s.validateSource(r, body)
	if err != nil {
		respondError(w, err)
		return
	}

	handle, err := s.runner.StartCategorization(r.Context(), sourcePath, s.inferenceFunction)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":       "Categorization Glue job started successfully",
		"jobRunId":      handle.JobRunID,
		"status":        handle.Status,
		"segmentedRows": []any{},
		"columns":       []any{},
	})
}

// GET /job-status/{jobRunId}?type=categorize|segmentation
func (s *server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobRunID := chi.URLParam(r, "jobRunId")
	jobName := s.runner.JobNameFor(r.URL.Query().Get("type"))

	rs, err := s.runner.JobStatus(r.Context(), jobRunID, jobName)
	if err != nil {
		respondError(w, err)
		return
	}

	switch {
	case rs.Status.Terminal():
		details := rs.ErrorMessage
		if details == "" {
			details = "Unknown error"
		}
		respondJSON(w, http.StatusInternalServerError, apperr.Payload{
			Error:   "Job " + strings.ToLower(string(rs.Status)),
			Details: details,
			Type:    apperr.KindGlue,
		})

	case rs.Status == gluejob.StatusSucceeded:
		s.respondSucceeded(w, r, rs, jobName)

	default:
		respondJSON(w, http.StatusOK, map[string]any{
			"jobRunId": rs.JobRunID,
			"status":   rs.Status,
			"message":  "Job is " + strings.ToLower(string(rs.Status)),
		})
	}
}

// respondSucceeded attaches the latest result record to a SUCCEEDED status.
// A missing record is a soft outcome, not an error: the job finished but the
// inference step has not stored anything yet.
func (s *server) respondSucceeded(w http.ResponseWriter, r *http.Request, rs *gluejob.RunStatus, jobName string) {
	rec, err := s.store.Latest(r.Context(), jobName)
	if err != nil {
		respondError(w, err)
		return
	}
	if rec == nil {
		log.Info().Str("jobRunId", rs.JobRunID).Str("job", jobName).Msg("Job succeeded but no results stored yet")
		respondJSON(w, http.StatusOK, map[string]any{
			"jobRunId":      rs.JobRunID,
			"status":        rs.Status,
			"message":       "Job completed but no results are available yet",
			"segmentedRows": []any{},
			"columns":       []any{},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"jobRunId":             rs.JobRunID,
		"status":               rs.Status,
		"message":              "Job completed successfully",
		"fileId":               rec.FileID,
		"suggestedCategories":  rec.SuggestedCategories,
		"reasoning":            rec.Reasoning,
		"segmentationCriteria": rec.SegmentationCriteria,
		"scriptPath":           rec.ScriptPath,
		"columns":              rec.Schema,
		"segmentedRows":        []any{},
	})
}

// POST /segment
// Body: {"s3FilePath": "s3://bucket/path/to/file"}
//
// Reuses the criteria from whatever categorization run most recently
// produced a script, independent of job name.
func (s *server) handleSegment(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		respondError(w, err)
		return
	}

	sourcePath, err := s.validateSource(r, body)
	if err != nil {
		respondError(w, err)
		return
	}

	rec, err := s.store.LatestWithScript(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if rec == nil {
		respondError(w, apperr.NotFound(apperr.KindServer, "No segmentation script found",
			"Run categorization first to generate a segmentation script."))
		return
	}

	handle, err := s.runner.StartSegmentation(r.Context(), sourcePath, rec.SegmentationCriteria)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":  "Segmentation Glue job started successfully",
		"jobRunId": handle.JobRunID,
		"status":   handle.Status,
	})
}
