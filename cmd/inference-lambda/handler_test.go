package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dataseg/data-segmentation-api/internal/config"
	"github.com/dataseg/data-segmentation-api/internal/inference"
	"github.com/dataseg/data-segmentation-api/internal/resultstore"
)

// fakeBedrock replays one canned completion per InvokeModel call.
type fakeBedrock struct {
	completions []string
	errs        []error
	calls       int
}

func (f *fakeBedrock) InvokeModel(_ context.Context, _ *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	body, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"text": f.completions[i]}},
	})
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

type fakeDynamo struct {
	lastPut *dynamodb.PutItemInput
	putErr  error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, nil
}

type fakeS3 struct {
	lastPut *s3.PutObjectInput
	putErr  error
}

func (f *fakeS3) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		CategorizationJob: "cat-job",
		SegmentationJob:   "seg-job",
		MetadataTable:     "metadata",
		ScratchBucket:     "scratch-bucket",
		ScriptPrefix:      "glue-scripts",
	}
}

func newTestHandler(b *fakeBedrock, d *fakeDynamo, s *fakeS3) *handler {
	cfg := testConfig()
	return newHandler(
		inference.NewClient(b, "test-model"),
		resultstore.New(d, cfg.MetadataTable),
		s,
		cfg,
	)
}

func testEvent() InferenceEvent {
	return InferenceEvent{
		Data: []map[string]any{
			{"age": 25, "region": "north"},
			{"age": 42, "region": "south"},
		},
		Schema:   []string{"age", "region", "income"},
		FileName: "customers.csv",
	}
}

const categorizationCompletion = `Here is the analysis:
{
  "suggested_categories": ["age_group", "region"],
  "reasoning": "Age and region drive clear splits.",
  "segmentation_criteria": {"age_group": [["age", ">", 30]]}
}`

func TestHandlePipeline(t *testing.T) {
	b := &fakeBedrock{completions: []string{
		categorizationCompletion,
		"```python\nimport sys\nprint('segmenting')\n```",
	}}
	d := &fakeDynamo{}
	s := &fakeS3{}

	resp, err := newTestHandler(b, d, s).Handle(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("response error = %q", resp.Error)
	}
	if len(resp.SuggestedCategories) != 2 || resp.SuggestedCategories[0] != "age_group" {
		t.Errorf("SuggestedCategories = %v", resp.SuggestedCategories)
	}
	if resp.GeneratedScript != "import sys\nprint('segmenting')" {
		t.Errorf("GeneratedScript = %q, want fences stripped", resp.GeneratedScript)
	}
	if !strings.HasPrefix(resp.ScriptPath, "s3://scratch-bucket/glue-scripts/segmentation-script-") {
		t.Errorf("ScriptPath = %q", resp.ScriptPath)
	}
	if !strings.HasPrefix(resp.FileID, "customers.csv_") {
		t.Errorf("FileID = %q", resp.FileID)
	}

	if d.lastPut == nil {
		t.Fatal("no record stored")
	}
	var stored resultstore.Record
	if err := attributevalue.UnmarshalMap(d.lastPut.Item, &stored); err != nil {
		t.Fatalf("unmarshal stored record: %v", err)
	}
	if stored.JobName != "cat-job" {
		t.Errorf("stored JobName = %q", stored.JobName)
	}
	if stored.SampleDataCount != 2 {
		t.Errorf("stored SampleDataCount = %d", stored.SampleDataCount)
	}
	if stored.ScriptPath != resp.ScriptPath {
		t.Errorf("stored ScriptPath = %q, response %q", stored.ScriptPath, resp.ScriptPath)
	}

	if s.lastPut == nil {
		t.Fatal("script not uploaded")
	}
}

func TestHandleInvalidEvent(t *testing.T) {
	d := &fakeDynamo{}
	h := newTestHandler(&fakeBedrock{}, d, &fakeS3{})

	resp, err := h.Handle(context.Background(), InferenceEvent{Schema: []string{"a"}, Data: []map[string]any{{"a": 1}}})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected error in response for missing file_name")
	}
	if d.lastPut != nil {
		t.Error("record stored despite invalid event")
	}
}

func TestHandleGarbledCategorizationFallsBack(t *testing.T) {
	b := &fakeBedrock{completions: []string{
		"I cannot answer in JSON today.",
		"print('ok')",
	}}
	d := &fakeDynamo{}

	resp, err := newTestHandler(b, d, &fakeS3{}).Handle(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("response error = %q", resp.Error)
	}
	if len(resp.SuggestedCategories) != 3 || resp.SuggestedCategories[0] != "age" {
		t.Errorf("SuggestedCategories = %v, want schema columns", resp.SuggestedCategories)
	}
	if d.lastPut == nil {
		t.Error("fallback categorization not stored")
	}
}

func TestHandleBedrockFailure(t *testing.T) {
	b := &fakeBedrock{errs: []error{errors.New("throttled")}}
	d := &fakeDynamo{}

	resp, err := newTestHandler(b, d, &fakeS3{}).Handle(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if resp.Message != "Categorization failed" || resp.Error == "" {
		t.Errorf("response = %+v", resp)
	}
	if d.lastPut != nil {
		t.Error("record stored despite categorization failure")
	}
}

func TestHandleScriptFailureStillStores(t *testing.T) {
	b := &fakeBedrock{
		completions: []string{categorizationCompletion, ""},
		errs:        []error{nil, errors.New("throttled")},
	}
	d := &fakeDynamo{}

	resp, err := newTestHandler(b, d, &fakeS3{}).Handle(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("response error = %q", resp.Error)
	}
	if resp.ScriptPath != "" || resp.GeneratedScript != "" {
		t.Errorf("script fields = %q, %q, want empty", resp.ScriptPath, resp.GeneratedScript)
	}
	if d.lastPut == nil {
		t.Fatal("record not stored")
	}
	var stored resultstore.Record
	if err := attributevalue.UnmarshalMap(d.lastPut.Item, &stored); err != nil {
		t.Fatalf("unmarshal stored record: %v", err)
	}
	if stored.ScriptPath != "" {
		t.Errorf("stored ScriptPath = %q, want empty", stored.ScriptPath)
	}
}

func TestHandleStoreFailure(t *testing.T) {
	b := &fakeBedrock{completions: []string{categorizationCompletion, "print('ok')"}}
	d := &fakeDynamo{putErr: errors.New("table missing")}

	resp, err := newTestHandler(b, d, &fakeS3{}).Handle(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if resp.Message != "Failed to store results" || resp.Error == "" {
		t.Errorf("response = %+v", resp)
	}
}
