package automation

import "strconv"

// Rule configs and event payloads are free-form JSON maps. These readers
// tolerate missing keys and wrong types: a value that can't be coerced reads
// as the zero value, which downstream code treats as "not configured".

func stringValue(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// optionalString distinguishes an absent key from a malformed one. An absent
// key reads as "", ok; a present non-string value reads as not ok, which
// callers treat as a broken config rather than an unset option.
func optionalString(m map[string]any, key string) (string, bool) {
	v, present := m[key]
	if !present {
		return "", true
	}
	s, ok := v.(string)
	return s, ok
}

func floatValue(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
