package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec reads and writes snapshots in one file format.
type Codec interface {
	Decode(r io.Reader) (*Snapshot, error)
	Encode(w io.Writer, s *Snapshot) error
}

// JSON is the codec used by the browser client.
type JSON struct{}

func (JSON) Decode(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode json snapshot: %w", err)
	}
	normalizeValues(&s)
	return &s, nil
}

func (JSON) Encode(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode json snapshot: %w", err)
	}
	return nil
}

// YAML is the hand-editable codec.
type YAML struct{}

func (YAML) Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode yaml snapshot: %w", err)
	}
	normalizeValues(&s)
	return &s, nil
}

func (YAML) Encode(w io.Writer, s *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode yaml snapshot: %w", err)
	}
	return enc.Close()
}

var codecs = map[string]Codec{
	".json": JSON{},
	".yaml": YAML{},
	".yml":  YAML{},
}

// Register makes c available for files with extension ext (".hcl").
func Register(ext string, c Codec) {
	codecs[strings.ToLower(ext)] = c
}

// ForPath picks the codec by file extension.
func ForPath(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := codecs[ext]
	if !ok {
		return nil, fmt.Errorf("no snapshot codec for %q files", ext)
	}
	return c, nil
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string) (*Snapshot, error) {
	c, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return c.Decode(f)
}

// WriteFile encodes s to path, replacing the file only once encoding
// succeeded.
func WriteFile(path string, s *Snapshot) error {
	c, err := ForPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// normalizeValues turns decoder specific forms (json.Number, int,
// map[any]any) into float64 and map[string]any so every codec yields the
// same values.
func normalizeValues(s *Snapshot) {
	for i := range s.Nodes {
		for k, v := range s.Nodes[i].Values {
			s.Nodes[i].Values[k] = Normalize(v)
		}
	}
}

// Normalize converts a decoded value into the canonical native form.
func Normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	}
	return v
}
