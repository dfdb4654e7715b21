package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dataseg/data-segmentation-api/internal/config"
	"github.com/dataseg/data-segmentation-api/internal/inference"
	"github.com/dataseg/data-segmentation-api/internal/metrics"
	"github.com/dataseg/data-segmentation-api/internal/resultstore"
	"github.com/dataseg/data-segmentation-api/internal/s3util"
)

type handler struct {
	inference *inference.Client
	store     *resultstore.Store
	s3        s3util.API
	cfg       *config.Config
}

func newHandler(inf *inference.Client, store *resultstore.Store, s3 s3util.API, cfg *config.Config) *handler {
	return &handler{inference: inf, store: store, s3: s3, cfg: cfg}
}

// Handle runs the full inference pipeline: categorize the sample, generate
// a segmentation script, upload it, and persist the result record. The
// returned error is always nil; failures are folded into the response so
// the calling Glue job never sees an invocation error.
func (h *handler) Handle(ctx context.Context, event InferenceEvent) (InferenceResponse, error) {
	start := time.Now()
	rec := metrics.New("DataSegmentation").Dimension("Stage", "inference")
	defer func() {
		rec.Metric("InferenceLatencyMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
			Count("InferenceInvocations").
			Flush()
	}()

	if err := validateEvent(event); err != nil {
		log.Error().Err(err).Msg("Invalid inference event")
		return failure("Invalid event payload", err), nil
	}

	log.Info().
		Str("file", event.FileName).
		Int("rows", len(event.Data)).
		Int("columns", len(event.Schema)).
		Msg("Running inference")

	cat, err := h.inference.CategorizeData(ctx, event.Data, event.Schema, event.FileName)
	if err != nil {
		log.Error().Err(err).Msg("Categorization failed")
		return failure("Categorization failed", err), nil
	}

	resp := InferenceResponse{
		SuggestedCategories:  cat.SuggestedCategories,
		Reasoning:            cat.Reasoning,
		SegmentationCriteria: cat.SegmentationCriteria,
		Message:              "Inference completed successfully",
	}

	script, scriptPath := h.generateAndUploadScript(ctx, event, cat)
	resp.GeneratedScript = script
	resp.ScriptPath = scriptPath

	fileID, err := h.store.Put(ctx, &resultstore.Record{
		FileName:             event.FileName,
		JobName:              h.cfg.CategorizationJob,
		SuggestedCategories:  cat.SuggestedCategories,
		Reasoning:            cat.Reasoning,
		SegmentationCriteria: cat.SegmentationCriteria,
		ScriptPath:           scriptPath,
		SampleDataCount:      len(event.Data),
		Schema:               event.Schema,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist inference results")
		return failure("Failed to store results", err), nil
	}
	resp.FileID = fileID

	log.Info().Str("fileId", fileID).Str("scriptPath", scriptPath).Msg("Inference complete")
	return resp, nil
}

// generateAndUploadScript produces and uploads the segmentation script.
// Script generation is best effort: the categorization result is still
// stored and returned when this step fails.
func (h *handler) generateAndUploadScript(ctx context.Context, event InferenceEvent, cat *inference.Categorization) (script, scriptPath string) {
	script, err := h.inference.GenerateScript(ctx, event.Schema, cat.SuggestedCategories, cat.SegmentationCriteria, event.Data)
	if err != nil {
		log.Warn().Err(err).Msg("Script generation failed, storing categorization only")
		return "", ""
	}

	key := s3util.ScriptKey(h.cfg.ScriptPrefix, time.Now().UTC().Format(time.RFC3339))
	scriptPath, err = s3util.UploadScript(ctx, h.s3, h.cfg.ScratchBucket, key, script)
	if err != nil {
		log.Warn().Err(err).Msg("Script upload failed, storing categorization only")
		return script, ""
	}
	return script, scriptPath
}

func validateEvent(event InferenceEvent) error {
	switch {
	case event.FileName == "":
		return fmt.Errorf("missing file_name")
	case len(event.Schema) == 0:
		return fmt.Errorf("missing schema")
	case len(event.Data) == 0:
		return fmt.Errorf("missing data")
	}
	return nil
}

func failure(message string, err error) InferenceResponse {
	return InferenceResponse{Message: message, Error: err.Error()}
}
