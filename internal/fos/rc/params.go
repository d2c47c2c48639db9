// Package rc implements the JSON-RPC 2.0 dispatch layer: a typed
// parameter bag (Params), a registry of named Calls, and an envelope
// parser that handles single requests, batches, and notifications.
//
// The Params/Call shape mirrors the teacher's fs/rc package (Params as
// map[string]interface{}, ErrParamNotFound/ErrParamInvalid as
// distinguished error types, a Calls registry keyed by method name) —
// see fs/rc/params_test.go and fs/rc/internal_test.go in the teacher.
package rc

import (
	"fmt"
	"strconv"
)

// Params is an untyped parameter/result bag, exactly like a parsed JSON
// object.
type Params map[string]interface{}

// ErrParamNotFound is returned by the typed getters when a key is
// missing from Params.
type ErrParamNotFound string

func (e ErrParamNotFound) Error() string {
	return fmt.Sprintf("Didn't find key %q in input", string(e))
}

// IsErrParamNotFound reports whether err is an ErrParamNotFound.
func IsErrParamNotFound(err error) bool {
	_, ok := err.(ErrParamNotFound)
	return ok
}

// NotErrParamNotFound reports whether err is a non-nil error that is not
// an ErrParamNotFound.
func NotErrParamNotFound(err error) bool {
	return err != nil && !IsErrParamNotFound(err)
}

// ErrParamInvalid is returned by the typed getters when a key is present
// but holds a value of the wrong type or shape.
type ErrParamInvalid struct {
	error
}

// IsErrParamInvalid reports whether err is an ErrParamInvalid.
func IsErrParamInvalid(err error) bool {
	_, ok := err.(ErrParamInvalid)
	return ok
}

// Get returns the raw value for key, or ErrParamNotFound.
func (p Params) Get(key string) (interface{}, error) {
	v, ok := p[key]
	if !ok {
		return nil, ErrParamNotFound(key)
	}
	return v, nil
}

// GetString returns the string value for key.
func (p Params) GetString(key string) (string, error) {
	v, err := p.Get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrParamInvalid{fmt.Errorf("expecting string value for key %q (was %T)", key, v)}
	}
	return s, nil
}

// GetInt64 returns the int64 value for key, accepting string, int, int64
// or float64 inputs (the shapes JSON decoding and positional-array
// binding can both produce).
func (p Params) GetInt64(key string) (int64, error) {
	v, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, ErrParamInvalid{fmt.Errorf("couldn't parse key %q (%q) as int64: %w", key, x, err)}
		}
		return n, nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x > 9.2e18 || x < -9.2e18 {
			return 0, ErrParamInvalid{fmt.Errorf("key %q overflows int64", key)}
		}
		return int64(x), nil
	default:
		return 0, ErrParamInvalid{fmt.Errorf("expecting number for key %q (was %T)", key, v)}
	}
}

// GetBool returns the bool value for key.
func (p Params) GetBool(key string) (bool, error) {
	v, err := p.Get(key)
	if err != nil {
		return false, err
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, ErrParamInvalid{fmt.Errorf("couldn't parse key %q (%q) as bool: %w", key, x, err)}
		}
		return b, nil
	default:
		return false, ErrParamInvalid{fmt.Errorf("expecting bool for key %q (was %T)", key, v)}
	}
}

// GetOptionalBool is like GetBool but returns def when key is absent.
func (p Params) GetOptionalBool(key string, def bool) (bool, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	return p.GetBool(key)
}
