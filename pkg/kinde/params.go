package kinde

import (
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"strconv"
)

// AdditionalParameters are extra query parameters for the authorize URL.
// Only keys listed in AllowedParameters are accepted.
type AdditionalParameters map[string]any

// AllowedParameters maps every accepted additional parameter to the type its
// value must have.
var AllowedParameters = map[string]string{
	"audience":          "string",
	"org_code":          "string",
	"org_name":          "string",
	"is_create_org":     "boolean",
	"lang":              "string",
	"login_hint":        "string",
	"connection_id":     "string",
	"plan_interest":     "string",
	"pricing_table_key": "string",
}

// CheckAdditionalParameters validates v against AllowedParameters and
// returns it as AdditionalParameters. v may be any map with string keys,
// such as map[string]string or map[string]bool. nil and empty maps yield an
// empty, non-nil result.
func CheckAdditionalParameters(v any) (AdditionalParameters, error) {
	var params AdditionalParameters

	switch t := v.(type) {
	case nil:
		return AdditionalParameters{}, nil
	case AdditionalParameters:
		params = t
	case map[string]any:
		params = t
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, &ParameterError{Kind: ErrUnexpectedType, Key: "additionalParameters", Got: v}
		}
		params = make(AdditionalParameters, rv.Len())
		for iter := rv.MapRange(); iter.Next(); {
			params[iter.Key().String()] = iter.Value().Interface()
		}
	}

	if len(params) == 0 {
		return AdditionalParameters{}, nil
	}

	for key, value := range params {
		expected, ok := AllowedParameters[key]
		if !ok {
			return nil, &ParameterError{Kind: ErrUnexpectedKey, Key: key, Got: value}
		}
		if !hasType(value, expected) {
			return nil, &ParameterError{Kind: ErrInvalidType, Key: key, Expected: expected, Got: value}
		}
	}

	return params, nil
}

func hasType(v any, expected string) bool {
	switch expected {
	case "boolean":
		_, ok := v.(bool)
		return ok
	default:
		_, ok := v.(string)
		return ok
	}
}

// AddAdditionalParameters copies params into target, overwriting existing
// keys, and returns target. A nil target is allocated.
func AddAdditionalParameters(target url.Values, params AdditionalParameters) url.Values {
	if target == nil {
		target = url.Values{}
	}

	for key, value := range params {
		switch t := value.(type) {
		case string:
			target.Set(key, t)
		case bool:
			target.Set(key, strconv.FormatBool(t))
		default:
			target.Set(key, fmt.Sprint(t))
		}
	}
	return target
}

// mergeParameters layers explicit over defaults without mutating either.
func mergeParameters(defaults, explicit AdditionalParameters) AdditionalParameters {
	out := make(AdditionalParameters, len(defaults)+len(explicit))
	maps.Copy(out, defaults)
	maps.Copy(out, explicit)
	return out
}
