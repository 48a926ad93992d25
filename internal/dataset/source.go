// Package dataset loads persona corpora and message files.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultLocation is the PersonaHub persona file on Hugging Face.
const DefaultLocation = "https://huggingface.co/datasets/proj-persona/PersonaHub/resolve/main/persona.jsonl"

const maxLineSize = 1 << 20

// Source yields raw persona descriptions in corpus order.
type Source interface {
	// Personas returns at most limit personas. limit <= 0 reads the whole
	// corpus.
	Personas(ctx context.Context, limit int) ([]string, error)
}

// Open returns the Source for location: an http(s) URL or a local path.
// An empty location selects DefaultLocation.
func Open(location string) Source {
	if location == "" {
		location = DefaultLocation
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location)
	}
	return &FileSource{Path: location}
}

// FileSource reads a local JSONL or plain-text persona file.
type FileSource struct {
	Path string
}

func (s *FileSource) Personas(ctx context.Context, limit int) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening persona file: %w", err)
	}
	defer f.Close()
	return readPersonas(ctx, f, limit)
}

// HTTPSource streams a persona file over HTTP and stops reading once the
// limit is reached.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns an HTTPSource with a bounded client timeout.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (s *HTTPSource) Personas(ctx context.Context, limit int) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching personas: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetching personas: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return readPersonas(ctx, resp.Body, limit)
}

type personaRecord struct {
	Persona *string `json:"persona"`
}

// readPersonas accepts JSONL records carrying a "persona" key or plain
// text lines. Blank lines are skipped.
func readPersonas(ctx context.Context, r io.Reader, limit int) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "{") {
			var rec personaRecord
			if err := json.Unmarshal([]byte(text), &rec); err != nil {
				return nil, fmt.Errorf("parsing persona line %d: %w", line, err)
			}
			if rec.Persona == nil {
				return nil, fmt.Errorf("parsing persona line %d: missing \"persona\" key", line)
			}
			text = *rec.Persona
		}
		out = append(out, text)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading personas: %w", err)
	}
	return out, nil
}
