package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Source describes where a dataset was read from.
type Source struct {
	Location string
	Path     string
	Cached   bool
}

// Fetch resolves a dataset location to a local file. HTTP(S) locations are
// downloaded once into cacheDir; anything else is treated as a local path.
func Fetch(ctx context.Context, location, cacheDir string) (Source, error) {
	if location == "" {
		return Source{}, fmt.Errorf("dataset location is required")
	}
	if !isRemote(location) {
		if _, err := os.Stat(location); err != nil {
			return Source{}, fmt.Errorf("failed to stat dataset: %w", err)
		}
		return Source{Location: location, Path: location, Cached: true}, nil
	}
	if cacheDir == "" {
		return Source{}, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Source{}, fmt.Errorf("failed to create cache dir: %w", err)
	}

	destPath := filepath.Join(cacheDir, cacheName(location))
	if _, err := os.Stat(destPath); err == nil {
		return Source{Location: location, Path: destPath, Cached: true}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Source{}, fmt.Errorf("failed to stat cached dataset: %w", err)
	}

	tmpFile, err := os.CreateTemp(cacheDir, "dataset-*.csv")
	if err != nil {
		return Source{}, fmt.Errorf("failed to create temp dataset: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	resp, err := httpRequest(ctx, location)
	if err != nil {
		return Source{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return Source{}, fmt.Errorf("unexpected dataset status: %s", resp.Status)
	}

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return Source{}, fmt.Errorf("failed to download dataset: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Source{}, fmt.Errorf("failed to close temp dataset: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return Source{}, fmt.Errorf("failed to move dataset into cache: %w", err)
	}
	return Source{Location: location, Path: destPath, Cached: false}, nil
}

// Load fetches a dataset and parses it.
func Load(ctx context.Context, location, cacheDir string) (*Frame, Source, error) {
	src, err := Fetch(ctx, location, cacheDir)
	if err != nil {
		return nil, Source{}, err
	}
	frame, err := ReadCSVFile(src.Path)
	if err != nil {
		return nil, src, fmt.Errorf("parse %s: %w", location, err)
	}
	return frame, src, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func cacheName(location string) string {
	sum := sha256.Sum256([]byte(location))
	prefix := hex.EncodeToString(sum[:6])
	base := "dataset.csv"
	if u, err := url.Parse(location); err == nil {
		if b := path.Base(u.Path); b != "" && b != "/" && b != "." {
			base = b
		}
	}
	return prefix + "-" + base
}

func httpRequest(ctx context.Context, location string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
