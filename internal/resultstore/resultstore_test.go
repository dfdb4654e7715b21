package resultstore

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo serves canned scan pages and records writes.
type fakeDynamo struct {
	putIn *dynamodb.PutItemInput
	pages []*dynamodb.ScanOutput
	page  int
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	out := f.pages[f.page]
	f.page++
	return out, nil
}

func mustItem(t *testing.T, rec Record) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return item
}

func TestPutSynthesizesFileID(t *testing.T) {
	f := &fakeDynamo{}
	s := New(f, "test-table")

	rec := &Record{FileName: "customers.csv", JobName: "cat-job"}
	fileID, err := s.Put(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(fileID, "customers.csv_") {
		t.Errorf("fileId = %q, want customers.csv_{timestamp}", fileID)
	}
	if fileID != rec.FileName+"_"+rec.Timestamp {
		t.Errorf("fileId = %q not composed from name and timestamp", fileID)
	}
	if f.putIn == nil || *f.putIn.TableName != "test-table" {
		t.Errorf("PutItem input = %+v", f.putIn)
	}
}

func TestLatestPicksMaxTimestamp(t *testing.T) {
	old := Record{FileID: "a_2023-01-01", Timestamp: "2023-01-01", JobName: "cat-job"}
	newer := Record{FileID: "a_2023-01-02", Timestamp: "2023-01-02", JobName: "cat-job"}
	f := &fakeDynamo{pages: []*dynamodb.ScanOutput{{
		Items: []map[string]types.AttributeValue{mustItem(t, old), mustItem(t, newer)},
	}}}
	s := New(f, "test-table")

	got, err := s.Latest(context.Background(), "cat-job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Timestamp != "2023-01-02" {
		t.Errorf("latest = %+v, want timestamp 2023-01-02", got)
	}
}

func TestLatestPaginates(t *testing.T) {
	page1 := &dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{mustItem(t, Record{FileID: "a", Timestamp: "2023-01-01"})},
		LastEvaluatedKey: map[string]types.AttributeValue{"file_id": &types.AttributeValueMemberS{Value: "a"}},
	}
	page2 := &dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{mustItem(t, Record{FileID: "b", Timestamp: "2023-01-03"})},
	}
	f := &fakeDynamo{pages: []*dynamodb.ScanOutput{page1, page2}}
	s := New(f, "test-table")

	got, err := s.Latest(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.FileID != "b" {
		t.Errorf("latest = %+v, want record from second page", got)
	}
	if f.page != 2 {
		t.Errorf("scan pages read = %d, want 2", f.page)
	}
}

func TestLatestEmpty(t *testing.T) {
	f := &fakeDynamo{pages: []*dynamodb.ScanOutput{{}}}
	s := New(f, "test-table")

	got, err := s.Latest(context.Background(), "cat-job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("latest = %+v, want nil for empty table", got)
	}
}
