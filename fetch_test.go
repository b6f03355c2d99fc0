package deskboot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingFetcher counts invocations and optionally writes the file.
func recordingFetcher(name string, calls *[]string, write bool, fail bool) Fetcher {
	return Fetcher{
		Name: name,
		Fetch: func(ctx context.Context, url, dest string) error {
			*calls = append(*calls, name+" "+url)
			if fail {
				return fmt.Errorf("%s failed", name)
			}
			if write {
				return os.WriteFile(dest, []byte("content"), 0644)
			}
			return nil
		},
	}
}

func TestArtifactLocalName(t *testing.T) {
	cases := []struct {
		artifact RemoteArtifact
		want     string
	}{
		{RemoteArtifact{URL: "https://example.com/a/updater.py"}, "updater.py"},
		{RemoteArtifact{URL: "https://example.com/a/updater.py?token=x"}, "updater.py"},
		{RemoteArtifact{URL: "https://example.com/a/b.py", Filename: "custom.py"}, "custom.py"},
	}
	for _, c := range cases {
		if got := c.artifact.LocalName(); got != c.want {
			t.Errorf("LocalName(%q) = %q, want %q", c.artifact.URL, got, c.want)
		}
	}
}

func TestFetchMissingSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "updater.py"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	var calls []string
	fetchers := []Fetcher{recordingFetcher("curl", &calls, true, false)}
	artifacts := []RemoteArtifact{{URL: "https://example.com/updater.py"}}

	results := FetchMissing(context.Background(), fetchers, artifacts, dir, discardLogger())
	if len(calls) != 0 {
		t.Errorf("existing file should issue zero network calls, got %v", calls)
	}
	if len(results) != 1 || !results[0].Skipped || results[0].Err != nil {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestFetchMissingDownloadsAbsent(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	fetchers := []Fetcher{recordingFetcher("curl", &calls, true, false)}
	artifacts := []RemoteArtifact{{URL: "https://example.com/updater.py"}}

	results := FetchMissing(context.Background(), fetchers, artifacts, dir, discardLogger())
	if len(calls) != 1 {
		t.Fatalf("expected one fetch call, got %v", calls)
	}
	if results[0].Err != nil || results[0].Skipped {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "updater.py")); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestFetchFileStrategyOrder(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	fetchers := []Fetcher{
		recordingFetcher("curl", &calls, false, true),
		recordingFetcher("wget", &calls, true, false),
	}

	dest := filepath.Join(dir, "f.py")
	if err := fetchFile(context.Background(), fetchers, "https://example.com/f.py", dest, discardLogger()); err != nil {
		t.Fatalf("fetchFile: %v", err)
	}
	if len(calls) != 2 || calls[0] != "curl https://example.com/f.py" || calls[1] != "wget https://example.com/f.py" {
		t.Errorf("strategy order wrong: %v", calls)
	}
}

func TestFetchFileDetectsMissingOutput(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	// Reports success but never writes the file.
	fetchers := []Fetcher{recordingFetcher("curl", &calls, false, false)}

	err := fetchFile(context.Background(), fetchers, "https://example.com/f.py", filepath.Join(dir, "f.py"), discardLogger())
	if err == nil {
		t.Error("missing output file should be an error")
	}
}

func TestFetchMissingFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	fetchers := []Fetcher{recordingFetcher("curl", &calls, false, true)}
	artifacts := []RemoteArtifact{
		{URL: "https://example.com/a.py"},
		{URL: "https://example.com/b.py"},
	}

	results := FetchMissing(context.Background(), fetchers, artifacts, dir, discardLogger())
	if len(results) != 2 {
		t.Fatalf("batch should continue past failures, got %d results", len(results))
	}
	for _, r := range results {
		if r.Err == nil {
			t.Errorf("expected per-item error for %s", r.Artifact.URL)
		}
	}
}

func TestFetchFileNoToolsAvailable(t *testing.T) {
	err := fetchFile(context.Background(), nil, "https://example.com/f.py", filepath.Join(t.TempDir(), "f.py"), discardLogger())
	if err == nil {
		t.Error("no fetchers should be an error")
	}
}
