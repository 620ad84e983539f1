package environment

import (
	"fmt"
	"slices"
)

// LookupString resolves key and requires a string.
func LookupString(s Scope, key string) (string, error) {
	v, err := s.Lookup(key)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("configuration %q is %T, not a string", key, v)
	}
	return str, nil
}

// LookupStrings resolves key as a sequence. A single string is a one-element sequence.
func LookupStrings(s Scope, key string) ([]string, error) {
	v, err := s.Lookup(key)
	if err != nil {
		return nil, err
	}
	seq, err := toStrings(v)
	if err != nil {
		return nil, fmt.Errorf("configuration %q: %w", key, err)
	}
	return seq, nil
}

// String resolves key as a string.
func (e *Environment) String(key string) (string, error) {
	return LookupString(e, key)
}

// Strings resolves key as a sequence of strings.
func (e *Environment) Strings(key string) ([]string, error) {
	return LookupStrings(e, key)
}

func appendValue(prev any, defined bool, v any) (any, error) {
	var seq []string
	if defined && prev != nil {
		head, err := toStrings(prev)
		if err != nil {
			return nil, err
		}
		seq = append(seq, head...)
	}

	tail, err := toStrings(v)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		seq = make([]string, 0, len(tail))
	}
	return append(seq, tail...), nil
}

func toStrings(v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		seq := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("cannot use %T as a sequence element", item)
			}
			seq = append(seq, str)
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("cannot use %T as a sequence", v)
	}
}

func cloneValue(v any) any {
	if seq, ok := v.([]string); ok {
		return slices.Clone(seq)
	}
	return v
}
