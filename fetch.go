package deskboot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
)

// RemoteArtifact is one (source URL, local filename) pair of the remote
// artifact list. Filename may be empty, in which case it derives from the
// URL path.
type RemoteArtifact struct {
	URL      string `yaml:"url"`
	Filename string `yaml:"filename,omitempty"`
}

// LocalName returns the filename the artifact is stored under.
func (a RemoteArtifact) LocalName() string {
	if a.Filename != "" {
		return a.Filename
	}
	return path.Base(strings.SplitN(a.URL, "?", 2)[0])
}

// Fetcher is one download strategy. Strategies are interchangeable; the
// batch uses whichever is available, in order.
type Fetcher struct {
	// Name identifies the tool in logs.
	Name string

	// Fetch downloads url to dest, creating or truncating dest.
	Fetch func(ctx context.Context, url, dest string) error
}

// availableFetchers returns the download tools present on this machine,
// preferred order first.
func availableFetchers() []Fetcher {
	var fetchers []Fetcher
	if _, err := exec.LookPath("curl"); err == nil {
		fetchers = append(fetchers, Fetcher{
			Name: "curl",
			Fetch: func(ctx context.Context, url, dest string) error {
				return runSilent(ctx, "curl", "-fsSL", "-o", dest, url)
			},
		})
	}
	if _, err := exec.LookPath("wget"); err == nil {
		fetchers = append(fetchers, Fetcher{
			Name: "wget",
			Fetch: func(ctx context.Context, url, dest string) error {
				return runSilent(ctx, "wget", "-q", "-O", dest, url)
			},
		})
	}
	return fetchers
}

// FetchResult reports the outcome of one artifact of a FetchMissing batch.
type FetchResult struct {
	Artifact RemoteArtifact

	// Skipped is true when the local file already existed.
	Skipped bool

	// Err is the per-item failure, nil on success or skip. Item failures
	// do not fail the batch.
	Err error
}

// FetchMissing downloads each artifact whose local file is absent from dir.
//
// Existing files are skipped without any network call; no content
// verification is performed on them. A failed download is logged and the
// batch continues — missing optional artifacts degrade later phases
// instead of aborting them.
func FetchMissing(ctx context.Context, fetchers []Fetcher, artifacts []RemoteArtifact, dir string, logger *slog.Logger) []FetchResult {
	results := make([]FetchResult, 0, len(artifacts))
	for _, a := range artifacts {
		dest := filepath.Join(dir, a.LocalName())
		if _, err := os.Stat(dest); err == nil {
			logger.Debug("artifact present, skipping", "file", a.LocalName())
			results = append(results, FetchResult{Artifact: a, Skipped: true})
			continue
		}
		err := fetchFile(ctx, fetchers, a.URL, dest, logger)
		if err != nil {
			logger.Warn("artifact download failed", "url", a.URL, "error", err)
		}
		results = append(results, FetchResult{Artifact: a, Err: err})
	}
	return results
}

// fetchFile tries each fetcher in order until one leaves dest on disk.
func fetchFile(ctx context.Context, fetchers []Fetcher, url, dest string, logger *slog.Logger) error {
	if len(fetchers) == 0 {
		return fmt.Errorf("no download tool available (need curl or wget)")
	}
	var lastErr error
	for _, f := range fetchers {
		if err := f.Fetch(ctx, url, dest); err != nil {
			lastErr = fmt.Errorf("%s: %w", f.Name, err)
			continue
		}
		if _, err := os.Stat(dest); err != nil {
			lastErr = fmt.Errorf("%s reported success but %s is missing", f.Name, dest)
			continue
		}
		return nil
	}
	return lastErr
}
