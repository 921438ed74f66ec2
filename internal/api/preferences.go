package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PreferenceType is the kind of a game preference.
type PreferenceType string

const (
	PreferenceNumber PreferenceType = "number"
	PreferenceBool   PreferenceType = "bool"
	PreferenceList   PreferenceType = "list"
	PreferenceText   PreferenceType = "text"
)

var (
	ErrInvalidValue      = errors.New("invalid preference value")
	ErrUnknownPreference = errors.New("unknown preference")
)

// Preference is one configurable game setting. DefaultValue is kept raw
// because its JSON type depends on Type (a list default is an index).
type Preference struct {
	Name         string          `json:"preference_name"`
	Type         PreferenceType  `json:"preference_type"`
	DefaultValue json.RawMessage `json:"default_value"`
	MinValue     *int            `json:"min_value,omitempty"`
	MaxValue     *int            `json:"max_value,omitempty"`
	List         []string        `json:"list,omitempty"`
	MinLength    *int            `json:"min_length,omitempty"`
	MaxLength    *int            `json:"max_length,omitempty"`
}

// Setting is a resolved name/value pair ready for EncodeSettings.
type Setting struct {
	Name  string
	Value string
}

func (p Preference) check() error {
	switch p.Type {
	case PreferenceNumber, PreferenceBool, PreferenceText:
	case PreferenceList:
		if len(p.List) == 0 {
			return fmt.Errorf("preference %s: empty list", p.Name)
		}
	default:
		return fmt.Errorf("preference %s: unknown type %q", p.Name, p.Type)
	}
	return nil
}

// Default returns the default value in the same form Normalize produces.
func (p Preference) Default() (string, error) {
	if len(p.DefaultValue) == 0 {
		return "", fmt.Errorf("preference %s: no default", p.Name)
	}

	switch p.Type {
	case PreferenceBool:
		var v bool
		if err := json.Unmarshal(p.DefaultValue, &v); err != nil {
			return "", fmt.Errorf("preference %s default: %w", p.Name, err)
		}
		return strconv.FormatBool(v), nil
	case PreferenceNumber:
		var v int
		if err := json.Unmarshal(p.DefaultValue, &v); err != nil {
			return "", fmt.Errorf("preference %s default: %w", p.Name, err)
		}
		return strconv.Itoa(v), nil
	case PreferenceList:
		var idx int
		if err := json.Unmarshal(p.DefaultValue, &idx); err != nil {
			return "", fmt.Errorf("preference %s default: %w", p.Name, err)
		}
		if idx < 0 || idx >= len(p.List) {
			return "", fmt.Errorf("preference %s default index %d out of range", p.Name, idx)
		}
		return p.List[idx], nil
	case PreferenceText:
		var v string
		if err := json.Unmarshal(p.DefaultValue, &v); err != nil {
			return "", fmt.Errorf("preference %s default: %w", p.Name, err)
		}
		return v, nil
	}
	return "", p.check()
}

// Validate reports whether input is acceptable for p.
func (p Preference) Validate(input string) error {
	_, err := p.Normalize(input)
	return err
}

// Normalize checks input against the preference's constraints and returns
// its canonical form. List values may be given as the element or its index.
func (p Preference) Normalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	switch p.Type {
	case PreferenceBool:
		v, err := strconv.ParseBool(input)
		if err != nil {
			return "", p.invalid(input, "want true or false")
		}
		return strconv.FormatBool(v), nil

	case PreferenceNumber:
		v, err := strconv.Atoi(input)
		if err != nil {
			return "", p.invalid(input, "want a whole number")
		}
		if p.MinValue != nil && v < *p.MinValue {
			return "", p.invalid(input, fmt.Sprintf("minimum is %d", *p.MinValue))
		}
		if p.MaxValue != nil && v > *p.MaxValue {
			return "", p.invalid(input, fmt.Sprintf("maximum is %d", *p.MaxValue))
		}
		return strconv.Itoa(v), nil

	case PreferenceList:
		for _, item := range p.List {
			if strings.EqualFold(item, input) {
				return item, nil
			}
		}
		if idx, err := strconv.Atoi(input); err == nil {
			if idx >= 0 && idx < len(p.List) {
				return p.List[idx], nil
			}
		}
		return "", p.invalid(input, "want one of "+strings.Join(p.List, ", "))

	case PreferenceText:
		n := len([]rune(input))
		if p.MinLength != nil && n < *p.MinLength {
			return "", p.invalid(input, fmt.Sprintf("at least %d characters", *p.MinLength))
		}
		if p.MaxLength != nil && n > *p.MaxLength {
			return "", p.invalid(input, fmt.Sprintf("at most %d characters", *p.MaxLength))
		}
		// the settings line is ;-separated name=value pairs
		if strings.ContainsAny(input, ";=\n\r") {
			return "", p.invalid(input, "must not contain ; = or line breaks")
		}
		return input, nil
	}
	return "", p.check()
}

func (p Preference) invalid(input, why string) error {
	return fmt.Errorf("%w: %s=%q: %s", ErrInvalidValue, p.Name, input, why)
}

// Settings resolves every preference of g, using overrides where given
// and defaults otherwise. Overrides for unknown names are an error.
func (g *Game) Settings(overrides map[string]string) ([]Setting, error) {
	for name := range overrides {
		if _, ok := g.Preference(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPreference, name)
		}
	}

	settings := make([]Setting, 0, len(g.Preferences))
	for _, p := range g.Preferences {
		var (
			v   string
			err error
		)
		if in, ok := overrides[p.Name]; ok {
			v, err = p.Normalize(in)
		} else {
			v, err = p.Default()
		}
		if err != nil {
			return nil, err
		}
		settings = append(settings, Setting{Name: p.Name, Value: v})
	}
	return settings, nil
}

// ParseOverrides turns ["rounds=5", "mode=fast"] into a map.
func ParseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("setting %q: want name=value", pair)
		}
		out[name] = value
	}
	return out, nil
}
