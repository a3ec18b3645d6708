package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/cache"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// FileSource reads local cost exports: JSON arrays (.json) or CSV files
// (.csv) with a header row. A directory path expands to the exports it
// contains. Rows without a provider column take the provider named by the
// file's prefix (aws_2025.csv → AWS), falling back to the view's fixed
// provider.
type FileSource struct {
	paths       []string
	caps        model.Capabilities
	concurrency int
	exports     *cache.ExportCache
}

// FileOption configures a FileSource
type FileOption func(*FileSource)

// WithExportCache reuses decoded files across fetches while they are
// unchanged on disk. The cache may be shared between sources.
func WithExportCache(c *cache.ExportCache) FileOption {
	return func(s *FileSource) {
		s.exports = c
	}
}

// NewFileSource creates a source over files and directories.
func NewFileSource(paths []string, caps model.Capabilities, concurrency int, opts ...FileOption) *FileSource {
	if concurrency < 1 {
		concurrency = 4
	}
	s := &FileSource{paths: paths, caps: caps, concurrency: concurrency}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source identifier
func (s *FileSource) Name() string {
	return "file"
}

// ServerFields is empty: files are always read whole.
func (s *FileSource) ServerFields() []model.Field {
	return nil
}

// Files resolves the configured paths to the export files to read, sorted.
// In a directory, single-provider views only pick files of their provider.
func (s *FileSource) Files() ([]string, error) {
	var files []string
	for _, p := range s.paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !isExport(e.Name()) {
				continue
			}
			if s.caps.FixedProvider != "" {
				if prov, ok := providerFromName(e.Name()); ok && prov != s.caps.FixedProvider {
					continue
				}
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

type fileResult struct {
	index int
	raw   []store.RawRecord
	err   error
}

// Fetch implements Source. Files are read concurrently and concatenated in
// path order. Any unreadable file fails the fetch.
func (s *FileSource) Fetch(ctx context.Context, _ model.FilterCriteria) ([]store.RawRecord, error) {
	start := time.Now()
	files, err := s.Files()
	if err != nil {
		return nil, &model.FetchError{Source: s.Name(), Err: err}
	}
	if len(files) == 0 {
		return nil, fetchError(s.Name(), 0, "no .json or .csv exports found in %s", strings.Join(s.paths, ", "))
	}

	results := make(chan fileResult, len(files))
	semaphore := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, f := range files {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				results <- fileResult{index: index, err: ctx.Err()}
				return
			}
			defer func() { <-semaphore }()

			raw, err := s.readFile(path)
			results <- fileResult{index: index, raw: raw, err: err}
		}(i, f)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	parts := make([][]store.RawRecord, len(files))
	var errs []error
	for r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", files[r.index], r.err))
			continue
		}
		parts[r.index] = r.raw
	}
	if len(errs) > 0 {
		return nil, &model.FetchError{Source: s.Name(), Err: errors.Join(errs...)}
	}

	var total int
	for _, p := range parts {
		total += len(p)
	}
	raw := make([]store.RawRecord, 0, total)
	for _, p := range parts {
		raw = append(raw, p...)
	}

	util.LogDebug(fmt.Sprintf("Read %d raw records from %d files in %v", len(raw), len(files), time.Since(start)))
	return raw, nil
}

// readFile decodes one export, going through the export cache when set.
// The cache key carries the stamped provider since sources of different
// views may share the cache.
func (s *FileSource) readFile(path string) ([]store.RawRecord, error) {
	provider, ok := providerFromName(filepath.Base(path))
	if !ok {
		provider = s.caps.FixedProvider
	}
	if s.exports == nil {
		return s.decodeFile(path, provider)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := path + "|" + string(provider)
	if res := s.exports.Get(key, info); res.Found {
		return res.Records, nil
	}

	raw, err := s.decodeFile(path, provider)
	if err != nil {
		return nil, err
	}
	s.exports.Set(key, info, raw)
	return raw, nil
}

func (s *FileSource) decodeFile(path string, provider model.Provider) ([]store.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []store.RawRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err = store.DecodeArray(data)
	case ".csv":
		raw, err = decodeCSV(bytes.NewReader(data))
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if provider != "" {
		for i := range raw {
			if !raw[i].Provider.Set {
				raw[i].Provider = store.V(string(provider))
			}
		}
	}
	return raw, nil
}

// decodeCSV reads a CSV export whose first row names the columns. Short
// rows are padded; a row that cannot be parsed at all aborts the file.
func decodeCSV(r io.Reader) ([]store.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []store.RawRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var raw []store.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		m := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				m[col] = strings.TrimSpace(row[i])
			}
		}
		raw = append(raw, store.FromMap(m))
	}
	return raw, nil
}

func isExport(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".csv":
		return true
	}
	return false
}

// providerFromName reads the provider from a file name prefix such as
// "aws_2025.csv" or "gcp-costs.json".
func providerFromName(name string) (model.Provider, bool) {
	base := strings.ToLower(name)
	for _, p := range model.Providers {
		slug := p.Slug()
		if strings.HasPrefix(base, slug+"_") || strings.HasPrefix(base, slug+"-") || strings.HasPrefix(base, slug+".") {
			return p, true
		}
	}
	return "", false
}
