package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

func TestReadRecords_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	recs, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("ReadRecords() returned %d records, want 0", len(recs))
	}
}

func TestReadRecords_NonExistentFile(t *testing.T) {
	recs, err := ReadRecords("/nonexistent/path/refs.jsonl")
	if err != nil {
		t.Fatalf("ReadRecords() error = %v (should return nil for nonexistent file)", err)
	}
	if len(recs) != 0 {
		t.Errorf("ReadRecords() returned %v, want none", recs)
	}
}

func TestDecodeRecords_SkipsBlankLines(t *testing.T) {
	input := strings.Join([]string{
		`{"pmid":"1","title":"Paper A","authors":[["Doe J",null]]}`,
		``,
		`{"wosid":"WOS:2","title":"Paper B","grantagencies":["NIH","NIH"]}`,
	}, "\n")

	recs, err := DecodeRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeRecords() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("DecodeRecords() returned %d records, want 2", len(recs))
	}
	if recs[0].FirstAuthor() != "Doe J" {
		t.Errorf("FirstAuthor = %q, want Doe J", recs[0].FirstAuthor())
	}
	if recs[1].WoSID != "WOS:2" {
		t.Errorf("WoSID = %q, want WOS:2", recs[1].WoSID)
	}
}

func TestDecodeRecords_ReportsLine(t *testing.T) {
	_, err := DecodeRecords(strings.NewReader("{\"pmid\":\"1\"}\n{not json}\n"))
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name line 2", err)
	}
}

func TestWriteAppendRecords_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")
	pd := reference.NewPubdate(2001, 5, 0)

	recs := []reference.Record{
		{PMID: "1", Title: "A", Pubdate: &pd, Authors: []reference.Author{{Name: "Doe J", Institutions: []int{1}}},
			Institutions: map[int]reference.Institution{1: {Address: "Lab", Organizations: []string{"Univ"}}}},
		{Title: "B"},
	}
	if err := WriteRecords(path, recs); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}
	if err := AppendRecord(path, reference.Record{PMID: "3"}); err != nil {
		t.Fatalf("AppendRecord() error = %v", err)
	}

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if *got[0].Pubdate != pd {
		t.Errorf("Pubdate = %d, want %d", *got[0].Pubdate, pd)
	}
	if got[0].Institutions[1].Organizations[0] != "Univ" {
		t.Errorf("Institutions = %v", got[0].Institutions)
	}
	if got[0].Authors[0].Institutions[0] != 1 {
		t.Errorf("Authors = %v", got[0].Authors)
	}

	if i, ok := FindByPMID(got, "3"); !ok || i != 2 {
		t.Errorf("FindByPMID(3) = %d, %v; want 2, true", i, ok)
	}
	if _, ok := FindByPMID(got, ""); ok {
		t.Error("FindByPMID with empty pmid should not match")
	}
}
