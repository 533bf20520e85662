package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"randomflight/internal/stats"
)

// Report maps a start airport code to the statistics of its walks.
type Report map[string]stats.Stats

func (r Report) Codes() []string {
	codes := make([]string, 0, len(r))
	for c := range r {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Unreturned lists airports none of whose walks made it home.
func (r Report) Unreturned() []string {
	var out []string
	for _, c := range r.Codes() {
		if r[c].Average == nil {
			out = append(out, c)
		}
	}
	return out
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml". Empty means detect from the path.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// FormatFor returns f, or the format implied by path's extension when f is empty.
func FormatFor(path string, f Format) Format {
	if f != "" {
		return f
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func Encode(r Report, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(r, "", "  ")
	}
}

func Decode(b []byte, f Format) (Report, error) {
	r := Report{}
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(b, &r)
	default:
		err = json.Unmarshal(b, &r)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Save writes the whole report to path, replacing any previous file.
func Save(path string, r Report, f Format) error {
	f = FormatFor(path, f)
	b, err := Encode(r, f)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

func Load(path string, f Format) (Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Decode(b, FormatFor(path, f))
	if err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return r, nil
}

// Run describes one batch run that produced a Report.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Trials     int
	MaxHops    int
}
