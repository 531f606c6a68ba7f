package routepath

import (
	"fmt"
	"regexp"
	"strconv"
)

// Params holds values captured from a path, keyed by parameter name.
// Anonymous wildcards are keyed "0", "1", ... in pattern order.
type Params map[string]string

// Get returns the value for name and whether it was captured.
func (p Params) Get(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// Int returns the value for name parsed as an int.
func (p Params) Int(name string) (int, error) {
	v, ok := p[name]
	if !ok {
		return 0, fmt.Errorf("param %q not captured", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", v)
	}
	return n, nil
}

// Clone returns a copy of p. A nil p yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// knownParamTypes lists the types accepted in ":name:type" tokens.
var knownParamTypes = map[string]bool{
	"string": true,
	"int":    true, "int64": true, "int32": true, "int16": true, "int8": true,
	"uint": true, "uint64": true, "uint32": true, "uint16": true, "uint8": true,
	"uuid": true,
}

// uuidRegex matches valid UUIDs.
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidateUUID validates that a string is a valid UUID.
func ValidateUUID(value string) error {
	if !uuidRegex.MatchString(value) {
		return fmt.Errorf("invalid UUID: %s", value)
	}
	return nil
}

// ValidateInt validates that a string is a valid integer.
func ValidateInt(value string) error {
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return fmt.Errorf("invalid integer: %s", value)
	}
	return nil
}

// ValidateParam validates a parameter value against its declared type.
func ValidateParam(value, paramType string) error {
	switch paramType {
	case "int", "int64", "int32", "int16", "int8":
		return ValidateInt(value)
	case "uint", "uint64", "uint32", "uint16", "uint8":
		if _, err := strconv.ParseUint(value, 10, 64); err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
	case "uuid":
		return ValidateUUID(value)
	}
	return nil
}
