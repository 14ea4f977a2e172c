package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Params maps scikit-learn style hyperparameter names to values. Values come
// from YAML decoding, so numbers may arrive as int or float64.
type Params map[string]interface{}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a shallow copy of p.
func (p Params) Copy() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String renders p as "{a: 1, b: uniform}" with keys in sorted order.
func (p Params) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(FormatValue(p[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// FormatValue renders a single hyperparameter value.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "none"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case string:
		return x
	case []int:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

// UnknownParam builds the error returned by SetParams for names a model does
// not recognise.
func UnknownParam(modelName, name string, value interface{}) error {
	return errors.NewValidationError(name, "unknown parameter for "+modelName, value)
}

// ParamInt coerces v to int. Floats are accepted only when integral.
func ParamInt(name string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), nil
		}
	}
	return 0, errors.NewValidationError(name, "must be an integer", v)
}

// ParamOptionalInt coerces v to int, treating nil as "unset".
func ParamOptionalInt(name string, v interface{}) (int, bool, error) {
	if v == nil {
		return 0, false, nil
	}
	n, err := ParamInt(name, v)
	return n, err == nil, err
}

// ParamFloat coerces v to float64.
func ParamFloat(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, errors.NewValidationError(name, "must be a number", v)
}

// ParamOptionalFloat coerces v to float64, treating nil as "unset".
func ParamOptionalFloat(name string, v interface{}) (float64, bool, error) {
	if v == nil {
		return 0, false, nil
	}
	f, err := ParamFloat(name, v)
	return f, err == nil, err
}

// ParamBool coerces v to bool.
func ParamBool(name string, v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, errors.NewValidationError(name, "must be a boolean", v)
}

// ParamString coerces v to string, optionally restricted to allowed values.
func ParamString(name string, v interface{}, allowed ...string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.NewValidationError(name, "must be a string", v)
	}
	if len(allowed) == 0 {
		return s, nil
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", errors.NewValidationError(name, "must be one of "+strings.Join(allowed, ", "), v)
}

// ParamIntSlice coerces v to []int. A scalar integer becomes a one-element slice.
func ParamIntSlice(name string, v interface{}) ([]int, error) {
	switch x := v.(type) {
	case []int:
		return append([]int(nil), x...), nil
	case []interface{}:
		out := make([]int, len(x))
		for i, e := range x {
			n, err := ParamInt(name, e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		n, err := ParamInt(name, v)
		if err != nil {
			return nil, errors.NewValidationError(name, "must be an integer or a list of integers", v)
		}
		return []int{n}, nil
	}
}
