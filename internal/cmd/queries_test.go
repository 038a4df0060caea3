package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeQueryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestResolveQueries(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		file    string
		want    []string
		wantErr string
	}{
		{name: "single query", raw: "DevOps engineer", want: []string{"DevOps engineer"}},
		{name: "comma separated", raw: "SRE, platform engineer", want: []string{"SRE", "platform engineer"}},
		{name: "blank tokens dropped", raw: "SRE, , Cloud engineer", want: []string{"SRE", "Cloud engineer"}},
		{name: "case-insensitive repeats keep first", raw: "Backend,backend, BACKEND", want: []string{"Backend"}},
		{name: "empty input", raw: " ,  , ", wantErr: "at least one non-empty query is required"},
		{name: "too many", raw: "q1,q2,q3,q4,q5,q6,q7,q8,q9,q10,q11", wantErr: "too many queries: max 10"},
		{name: "array file", file: `["SRE", "  Cloud engineer  ", ""]`, want: []string{"SRE", "Cloud engineer"}},
		{
			name: "object file with comments",
			file: `{
				// titles first
				job_titles: ["Backend", "SRE"],
				queries: ["sre", "DevSecOps"],
			}`,
			want: []string{"Backend", "SRE", "DevSecOps"},
		},
		{
			name: "positional before file",
			raw:  "Backend,Data Engineer",
			file: `{"job_titles":["backend","ML Engineer","  "]}`,
			want: []string{"Backend", "Data Engineer", "ML Engineer"},
		},
		{
			name:    "limit spans both sources",
			raw:     "q1,q2,q3,q4,q5,q6",
			file:    `["q7","q8","q9","q10","q11"]`,
			wantErr: "too many queries: max 10",
		},
		{name: "broken file", file: `{"job_titles":[`, wantErr: "parse --query-file"},
		{name: "non-string entry", file: `{"job_titles":["backend",123]}`, wantErr: "parse --query-file"},
		{name: "unknown object", file: `{"titles":["backend"]}`, wantErr: "expected a string array or an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeQueryFile(t, tt.file)
			}
			got, err := resolveQueries(tt.raw, path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("resolveQueries() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveQueries() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("resolveQueries() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestResolveQueriesMissingFile(t *testing.T) {
	_, err := resolveQueries("", filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "read --query-file") {
		t.Fatalf("resolveQueries() error = %v, want read error", err)
	}
}
