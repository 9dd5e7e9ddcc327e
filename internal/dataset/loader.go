// Package dataset fetches and validates the school dataset consumed by the
// map service.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/school-map-service/internal/domain"
)

// ErrInvalidDataset is returned when the document parses but does not have
// the expected shape.
var ErrInvalidDataset = errors.New("invalid dataset")

// maxDocumentSize bounds how much of a remote document is read.
const maxDocumentSize = 64 << 20

// Loader fetches the dataset document once at startup.
type Loader struct {
	source string
	client *http.Client
}

// NewLoader creates a Loader for source, which is an http(s) URL, a
// file:// URL or a local path.
func NewLoader(source string, timeout time.Duration) *Loader {
	return &Loader{
		source: source,
		client: &http.Client{Timeout: timeout},
	}
}

// Load fetches, decodes and validates the dataset. There is no retry.
func (l *Loader) Load(ctx context.Context) (*domain.Dataset, error) {
	data, err := Fetch(ctx, l.client, l.source)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	return Decode(data)
}

// Decode parses and validates a dataset document.
func Decode(data []byte) (*domain.Dataset, error) {
	var raw struct {
		Metadata  *domain.Metadata  `json:"metadata"`
		MapConfig *domain.MapConfig `json:"map_config"`
		Schools   *[]domain.School  `json:"schools"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if raw.Schools == nil {
		return nil, fmt.Errorf("%w: missing schools list", ErrInvalidDataset)
	}

	ds := &domain.Dataset{
		Metadata:  raw.Metadata,
		MapConfig: raw.MapConfig,
		Schools:   *raw.Schools,
	}
	for i := range ds.Schools {
		s := &ds.Schools[i]
		if s.Name == "" || s.Municipality == "" {
			return nil, fmt.Errorf("%w: school %d lacks name or kommune", ErrInvalidDataset, i)
		}
		// Documents written by older builds carry scores only.
		if s.Color == "" {
			s.Derive()
		}
	}
	return ds, nil
}

// Fetch reads source, which is an http(s) URL, a file:// URL or a local
// path. Non-2xx HTTP responses are errors.
func Fetch(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		path := source
		if strings.HasPrefix(source, "file://") {
			u, err := url.Parse(source)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", source, err)
			}
			path = u.Path
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: status %d", source, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
