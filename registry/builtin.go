package registry

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"unicode/utf8"

	"github.com/go-viper/mapstructure/v2"
	"github.com/vk/jsonform/field"
)

// Names of the built-in validators.
const (
	Required  = "required"
	MinLength = "minLength"
	MaxLength = "maxLength"
	Pattern   = "pattern"
	Min       = "min"
	Max       = "max"
)

// LengthOptions configure minLength and maxLength.
type LengthOptions struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

// PatternOptions configure pattern.
type PatternOptions struct {
	Regex string `mapstructure:"regex"`
}

// BoundOptions configure min and max.
type BoundOptions struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// Defaults returns the built-in scope.
func Defaults() Config {
	return Config{
		Validators: map[string]field.ValidatorFunc{
			Required:  required,
			MinLength: minLength,
			MaxLength: maxLength,
			Pattern:   pattern,
			Min:       minimum,
			Max:       maximum,
		},
		ValidationMessages: map[string]string{
			Required:  "this field is required",
			MinLength: "value is too short",
			MaxLength: "value is too long",
			Pattern:   "value has an invalid format",
			Min:       "value is too small",
			Max:       "value is too large",
		},
	}
}

// DecodeOptions decodes declaration options into out. Scalars are accepted
// for single-option validators, e.g. ["minLength", 3].
func DecodeOptions(options any, key string, out any) error {
	if options == nil {
		return fmt.Errorf("missing options")
	}
	if rv := reflect.ValueOf(options); rv.Kind() != reflect.Map {
		options = map[string]any{key: options}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(options)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func required(_ context.Context, value any, _ *field.Field, _ any) (bool, error) {
	return isEmpty(value), nil
}

// length measures strings in runes and sequences in elements.
func length(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func minLength(_ context.Context, value any, _ *field.Field, options any) (bool, error) {
	var opts LengthOptions
	if err := DecodeOptions(options, "min", &opts); err != nil {
		return false, fmt.Errorf("%s: %w", MinLength, err)
	}
	if isEmpty(value) {
		return false, nil
	}
	n, ok := length(value)
	return ok && n < opts.Min, nil
}

func maxLength(_ context.Context, value any, _ *field.Field, options any) (bool, error) {
	var opts LengthOptions
	if err := DecodeOptions(options, "max", &opts); err != nil {
		return false, fmt.Errorf("%s: %w", MaxLength, err)
	}
	n, ok := length(value)
	return ok && n > opts.Max, nil
}

func pattern(_ context.Context, value any, _ *field.Field, options any) (bool, error) {
	var opts PatternOptions
	if err := DecodeOptions(options, "regex", &opts); err != nil {
		return false, fmt.Errorf("%s: %w", Pattern, err)
	}
	re, err := regexp.Compile(opts.Regex)
	if err != nil {
		return false, fmt.Errorf("%s: %w", Pattern, err)
	}
	if isEmpty(value) {
		return false, nil
	}
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	return !re.MatchString(s), nil
}

// number accepts Go numerics and numeric strings.
func number(v any) (float64, bool) {
	var f float64
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{WeaklyTypedInput: true, Result: &f})
	if err != nil {
		return 0, false
	}
	if err := dec.Decode(v); err != nil {
		return 0, false
	}
	return f, true
}

func minimum(_ context.Context, value any, _ *field.Field, options any) (bool, error) {
	var opts BoundOptions
	if err := DecodeOptions(options, "min", &opts); err != nil {
		return false, fmt.Errorf("%s: %w", Min, err)
	}
	if isEmpty(value) {
		return false, nil
	}
	n, ok := number(value)
	return !ok || n < opts.Min, nil
}

func maximum(_ context.Context, value any, _ *field.Field, options any) (bool, error) {
	var opts BoundOptions
	if err := DecodeOptions(options, "max", &opts); err != nil {
		return false, fmt.Errorf("%s: %w", Max, err)
	}
	if isEmpty(value) {
		return false, nil
	}
	n, ok := number(value)
	return !ok || n > opts.Max, nil
}
