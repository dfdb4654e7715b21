package gluejob

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"github.com/dataseg/data-segmentation-api/internal/apperr"
)

// fakeGlue records inputs and plays back canned outputs.
type fakeGlue struct {
	startIn  *glue.StartJobRunInput
	startOut *glue.StartJobRunOutput
	startErr error

	getIn  *glue.GetJobRunInput
	getOut *glue.GetJobRunOutput
	getErr error
}

func (f *fakeGlue) StartJobRun(_ context.Context, in *glue.StartJobRunInput, _ ...func(*glue.Options)) (*glue.StartJobRunOutput, error) {
	f.startIn = in
	return f.startOut, f.startErr
}

func (f *fakeGlue) GetJobRun(_ context.Context, in *glue.GetJobRunInput, _ ...func(*glue.Options)) (*glue.GetJobRunOutput, error) {
	f.getIn = in
	return f.getOut, f.getErr
}

func newRunner(f *fakeGlue) *Runner {
	return NewRunner(f, "cat-job", "seg-job", "scratch-bucket")
}

func TestStartCategorization(t *testing.T) {
	f := &fakeGlue{startOut: &glue.StartJobRunOutput{JobRunId: aws.String("jr1")}}
	r := newRunner(f)

	h, err := r.StartCategorization(context.Background(), "s3://b/f.csv", "infer-fn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.JobRunID != "jr1" || h.Status != StatusStarted || h.JobName != "cat-job" {
		t.Errorf("handle = %+v", h)
	}
	if got := aws.ToString(f.startIn.JobName); got != "cat-job" {
		t.Errorf("JobName = %q, want cat-job", got)
	}
	if f.startIn.Arguments["--S3_FILE_PATH"] != "s3://b/f.csv" {
		t.Errorf("arguments = %v", f.startIn.Arguments)
	}
	if f.startIn.Arguments["--LAMBDA_FUNCTION_NAME"] != "infer-fn" {
		t.Errorf("arguments = %v", f.startIn.Arguments)
	}
}

func TestStartCategorizationJobMissing(t *testing.T) {
	f := &fakeGlue{startErr: &types.EntityNotFoundException{Message: aws.String("no such job")}}
	r := newRunner(f)

	_, err := r.StartCategorization(context.Background(), "s3://b/f.csv", "infer-fn")
	var ce *apperr.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if ce.Kind != apperr.KindGlue {
		t.Errorf("kind = %q, want glue", ce.Kind)
	}
}

func TestStartSegmentationArguments(t *testing.T) {
	f := &fakeGlue{startOut: &glue.StartJobRunOutput{JobRunId: aws.String("jr2")}}
	r := newRunner(f)

	criteria := map[string]any{"High Value": map[string]any{"description": "big spenders"}}
	h, err := r.StartSegmentation(context.Background(), "s3://b/f.csv", criteria)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.JobName != "seg-job" {
		t.Errorf("job name = %q", h.JobName)
	}
	args := f.startIn.Arguments
	if args["--s3_input_path"] != "s3://b/f.csv" {
		t.Errorf("input path arg = %q", args["--s3_input_path"])
	}
	if args["--s3_output_path"] == "" || args["--segmentation_criteria"] == "" {
		t.Errorf("arguments = %v", args)
	}
}

func TestJobStatusNotFound(t *testing.T) {
	f := &fakeGlue{getErr: &types.EntityNotFoundException{Message: aws.String("unknown run")}}
	r := newRunner(f)

	_, err := r.JobStatus(context.Background(), "jr-missing", "cat-job")
	var ne *apperr.NotFoundError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestJobStatusTerminalFailure(t *testing.T) {
	f := &fakeGlue{getOut: &glue.GetJobRunOutput{JobRun: &types.JobRun{
		JobRunState:  types.JobRunStateFailed,
		ErrorMessage: aws.String("boom"),
	}}}
	r := newRunner(f)

	rs, err := r.JobStatus(context.Background(), "jr1", "cat-job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Status != StatusFailed || !rs.Status.Terminal() {
		t.Errorf("status = %+v", rs)
	}
	if rs.ErrorMessage != "boom" {
		t.Errorf("error message = %q, want boom", rs.ErrorMessage)
	}
}

func TestJobStatusRunningHasNoError(t *testing.T) {
	f := &fakeGlue{getOut: &glue.GetJobRunOutput{JobRun: &types.JobRun{
		JobRunState:  types.JobRunStateRunning,
		ErrorMessage: aws.String("stale"),
	}}}
	r := newRunner(f)

	rs, err := r.JobStatus(context.Background(), "jr1", "cat-job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.ErrorMessage != "" {
		t.Errorf("non-terminal run carried error message %q", rs.ErrorMessage)
	}
}

func TestJobNameFor(t *testing.T) {
	r := newRunner(&fakeGlue{})
	if got := r.JobNameFor("segmentation"); got != "seg-job" {
		t.Errorf("JobNameFor(segmentation) = %q", got)
	}
	if got := r.JobNameFor("categorize"); got != "cat-job" {
		t.Errorf("JobNameFor(categorize) = %q", got)
	}
	if got := r.JobNameFor(""); got != "cat-job" {
		t.Errorf("JobNameFor(\"\") = %q", got)
	}
}
