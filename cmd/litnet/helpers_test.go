package main

import (
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"email", "email"},
		{"pubmed-rate", "pubmed_rate"},
		{"NCBI_API_KEY", "ncbi_api_key"},
		{"Cache-Path", "cache_path"},
	}
	for _, tt := range tests {
		if got := normalizeKey(tt.in); got != tt.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildName(t *testing.T) {
	if got := buildName("statins", "refs.jsonl"); got != "statins" {
		t.Errorf("root label ignored: %q", got)
	}
	if got := buildName("", "data/refs.jsonl"); got != "data/refs" {
		t.Errorf("buildName from path = %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateString("a rather long title", 10); got != "a rathe..." {
		t.Errorf("got %q", got)
	}
}
