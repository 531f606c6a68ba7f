package router

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/vango-dev/routekit/pkg/routepath"
)

// ParamParser binds route params to struct fields tagged `param:"name"`.
// Params stay strings on the route; only the bound copy is converted.
type ParamParser struct{}

// NewParamParser creates a new parameter parser.
func NewParamParser() *ParamParser {
	return &ParamParser{}
}

// Parse fills the tagged fields of target, a pointer to a struct. Params
// without a tagged field and tagged fields without a param are skipped.
// A nil target is a no-op.
func (p *ParamParser) Parse(params Params, target any) error {
	if target == nil {
		return nil
	}

	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind target must be a pointer to a struct, got %T", target)
	}

	v := ptr.Elem()
	for i := 0; i < v.NumField(); i++ {
		name := v.Type().Field(i).Tag.Get("param")
		value, ok := params[name]
		if name == "" || !ok || !v.Field(i).CanSet() {
			continue
		}
		if err := setField(v.Field(i), value); err != nil {
			return fmt.Errorf("bind param %q: %w", name, err)
		}
	}
	return nil
}

// setField converts value to the field's kind. Numeric conversions honour
// the field's bit size, so overflow is an error.
func setField(field reflect.Value, value string) error {
	typ := field.Type()
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, typ.Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, typ.Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, typ.Bits())
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if typ.Elem().Kind() != reflect.String {
			return fmt.Errorf("cannot bind to %s", typ)
		}
		// Wildcard captures split into their segments.
		var parts []string
		if value != "" {
			parts = strings.Split(value, "/")
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("cannot bind to %s", typ)
	}
	return nil
}

// ValidateParam validates a parameter value against its expected type.
func ValidateParam(value, paramType string) error {
	return routepath.ValidateParam(value, paramType)
}
