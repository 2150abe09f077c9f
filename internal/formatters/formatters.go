// Package formatters renders pages, searches and filter checks for the CLI.
package formatters

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"talentsearch/internal/types"
)

// Renderer writes each CLI result type in one output format
type Renderer interface {
	Page(w io.Writer, page *types.PageResult) error
	Search(w io.Writer, req *types.SearchRequest) error
	FilterCheck(w io.Writer, check *types.FilterCheckOutput) error
}

// Registry maps format names to renderers
type Registry struct {
	renderers map[string]Renderer
}

// GlobalRegistry is the registry used by the CLI
var GlobalRegistry = NewRegistry()

// NewRegistry returns a registry holding the json, text and markdown renderers
func NewRegistry() *Registry {
	r := &Registry{renderers: map[string]Renderer{}}
	r.Register("json", jsonRenderer{})
	r.Register("text", textRenderer{})
	r.Register("markdown", markdownRenderer{})
	return r
}

// Register adds or replaces the renderer for format
func (r *Registry) Register(format string, renderer Renderer) {
	r.renderers[format] = renderer
}

// Formats returns the registered format names in sorted order
func (r *Registry) Formats() []string {
	return slices.Sorted(maps.Keys(r.renderers))
}

// Format renders data in format. Values other than the three result types
// can only be rendered as json.
func (r *Registry) Format(data any, format string) (string, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return "", fmt.Errorf("unknown output format %q", format)
	}

	var out strings.Builder
	var err error
	switch v := data.(type) {
	case *types.PageResult:
		err = renderer.Page(&out, v)
	case types.PageResult:
		err = renderer.Page(&out, &v)
	case *types.SearchRequest:
		err = renderer.Search(&out, v)
	case types.SearchRequest:
		err = renderer.Search(&out, &v)
	case *types.FilterCheckOutput:
		err = renderer.FilterCheck(&out, v)
	case types.FilterCheckOutput:
		err = renderer.FilterCheck(&out, &v)
	default:
		if _, isJSON := renderer.(jsonRenderer); !isJSON {
			return "", fmt.Errorf("format %q cannot render %T", format, data)
		}
		err = writeJSON(&out, data)
	}
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

type jsonRenderer struct{}

func (jsonRenderer) Page(w io.Writer, page *types.PageResult) error { return writeJSON(w, page) }

func (jsonRenderer) Search(w io.Writer, req *types.SearchRequest) error { return writeJSON(w, req) }

func (jsonRenderer) FilterCheck(w io.Writer, check *types.FilterCheckOutput) error {
	return writeJSON(w, check)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
