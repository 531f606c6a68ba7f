package router

import (
	"reflect"
	"strings"
	"testing"
)

type bindTarget struct {
	Page    string   `param:"page"`
	ID      int      `param:"id"`
	Big     int64    `param:"big"`
	Small   int8     `param:"small"`
	Count   uint     `param:"count"`
	Ratio   float64  `param:"ratio"`
	Draft   bool     `param:"draft"`
	Path    []string `param:"path"`
	Ignored string
	hidden  string `param:"hidden"`
}

func TestParamParserParse(t *testing.T) {
	params := Params{
		"page":   "intro",
		"id":     "42",
		"big":    "9223372036854775807",
		"small":  "-128",
		"count":  "7",
		"ratio":  "0.25",
		"draft":  "true",
		"path":   "guides/setup/linux",
		"hidden": "x",
		"extra":  "unused",
	}

	var got bindTarget
	if err := NewParamParser().Parse(params, &got); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := bindTarget{
		Page:  "intro",
		ID:    42,
		Big:   9223372036854775807,
		Small: -128,
		Count: 7,
		Ratio: 0.25,
		Draft: true,
		Path:  []string{"guides", "setup", "linux"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParamParserMissingAndEmpty(t *testing.T) {
	got := bindTarget{Page: "keep"}
	if err := NewParamParser().Parse(Params{"path": "", "id": "3"}, &got); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got.Page != "keep" || got.ID != 3 {
		t.Errorf("Parse() = %+v", got)
	}
	if got.Path != nil {
		t.Errorf("Path = %v, want nil for an empty capture", got.Path)
	}
}

func TestParamParserErrors(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		target any
		want   string
	}{
		{"not a number", Params{"id": "abc"}, &bindTarget{}, `bind param "id"`},
		{"overflow", Params{"small": "300"}, &bindTarget{}, `bind param "small"`},
		{"negative unsigned", Params{"count": "-1"}, &bindTarget{}, `bind param "count"`},
		{"bad bool", Params{"draft": "maybe"}, &bindTarget{}, `bind param "draft"`},
		{"unsupported slice", Params{"ids": "1/2"}, &struct {
			IDs []int `param:"ids"`
		}{}, "cannot bind to []int"},
		{"unsupported kind", Params{"m": "x"}, &struct {
			M map[string]string `param:"m"`
		}{}, "cannot bind to map[string]string"},
		{"not a pointer", Params{"id": "1"}, bindTarget{}, "pointer to a struct"},
		{"pointer to non-struct", Params{"id": "1"}, new(int), "pointer to a struct"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := NewParamParser().Parse(tc.params, tc.target)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestParamParserNilTarget(t *testing.T) {
	if err := NewParamParser().Parse(Params{"id": "1"}, nil); err != nil {
		t.Errorf("Parse(nil) error: %v", err)
	}
}

func TestValidateParam(t *testing.T) {
	tests := []struct {
		value     string
		paramType string
		wantErr   bool
	}{
		{"123", "int", false},
		{"abc", "int", true},
		{"550e8400-e29b-41d4-a716-446655440000", "uuid", false},
		{"not-uuid", "uuid", true},
		{"anything", "string", false},
		{"anything", "", false},
		{"anything", "unknown", false},
	}

	for _, tt := range tests {
		err := ValidateParam(tt.value, tt.paramType)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateParam(%q, %q) error = %v, wantErr %v", tt.value, tt.paramType, err, tt.wantErr)
		}
	}
}

func TestRouteBind(t *testing.T) {
	type postParams struct {
		Category string `param:"category"`
		ID       int    `param:"id"`
	}

	route := &Route{Params: Params{"category": "go", "id": "42"}}

	var p postParams
	if err := route.Bind(&p); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if p.Category != "go" || p.ID != 42 {
		t.Errorf("Bind() = %+v, want {go 42}", p)
	}
	if route.Params["id"] != "42" {
		t.Errorf("params[id] = %q, raw value must stay a string", route.Params["id"])
	}
}
