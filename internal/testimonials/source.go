package testimonials

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/testimonials.yaml
var defaultData []byte

// Source loads the unfiltered testimonial list.
type Source interface {
	Load(ctx context.Context) ([]Testimonial, error)
}

// FileSource reads a YAML testimonial file on every Load so edits are picked
// up without a restart.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]Testimonial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parse(data)
}

// StaticSource serves a fixed in-memory list.
type StaticSource struct {
	items []Testimonial
}

// NewStaticSource copies items into a StaticSource.
func NewStaticSource(items []Testimonial) *StaticSource {
	return &StaticSource{items: clone(items)}
}

// DefaultSource returns the testimonials bundled with the binary.
func DefaultSource() (*StaticSource, error) {
	items, err := parse(defaultData)
	if err != nil {
		return nil, fmt.Errorf("bundled testimonials: %w", err)
	}
	return &StaticSource{items: items}, nil
}

func (s *StaticSource) Load(ctx context.Context) ([]Testimonial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return clone(s.items), nil
}

type document struct {
	Testimonials []Testimonial `yaml:"testimonials"`
}

func parse(data []byte) ([]Testimonial, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return doc.Testimonials, nil
}

func clone(src []Testimonial) []Testimonial {
	out := make([]Testimonial, len(src))
	copy(out, src)
	return out
}
