package manifest

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
)

// Format is a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Manifest is a declarative route table.
type Manifest struct {
	Routes []RouteSpec `json:"routes" toml:"routes"`
}

// RouteSpec describes one route. Hook fields hold names that are
// resolved against a Registry by Build.
type RouteSpec struct {
	Path         string         `json:"path" toml:"path"`
	Name         string         `json:"name,omitempty" toml:"name,omitempty"`
	Handler      string         `json:"handler,omitempty" toml:"handler,omitempty"`
	Before       string         `json:"before,omitempty" toml:"before,omitempty"`
	BeforeInit   string         `json:"beforeInit,omitempty" toml:"beforeInit,omitempty"`
	BeforeUpdate string         `json:"beforeUpdate,omitempty" toml:"beforeUpdate,omitempty"`
	Init         string         `json:"init,omitempty" toml:"init,omitempty"`
	Update       string         `json:"update,omitempty" toml:"update,omitempty"`
	After        string         `json:"after,omitempty" toml:"after,omitempty"`
	Pop          string         `json:"pop,omitempty" toml:"pop,omitempty"`
	Unload       string         `json:"unload,omitempty" toml:"unload,omitempty"`
	Resources    []string       `json:"resources,omitempty" toml:"resources,omitempty"`
	Filters      []string       `json:"filters,omitempty" toml:"filters,omitempty"`
	Meta         map[string]any `json:"meta,omitempty" toml:"meta,omitempty"`
	Children     []RouteSpec    `json:"children,omitempty" toml:"children,omitempty"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", rkerrors.New("E022").
			WithFile(path).
			WithSuggestion("Rename the manifest to routes.json or routes.toml")
	}
}

// Decode parses a manifest.
func Decode(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, rkerrors.New("E020").WithDetail(err.Error()).Wrap(err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, rkerrors.New("E020").WithDetail(err.Error()).Wrap(err)
		}
	default:
		return nil, rkerrors.New("E022").WithDetail("format " + string(format))
	}
	return &m, nil
}

// Encode writes the manifest in the given format.
func (m *Manifest) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatTOML:
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(m); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	default:
		return nil, rkerrors.New("E022").WithDetail("format " + string(format))
	}
}

// Len counts every route, children included.
func (m *Manifest) Len() int {
	return countSpecs(m.Routes)
}

func countSpecs(specs []RouteSpec) int {
	n := len(specs)
	for _, s := range specs {
		n += countSpecs(s.Children)
	}
	return n
}
