package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vk/jsonform/keypath"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FieldsPath string // json or yaml field tree
	ValuesPath string // optional initial values

	// Set holds `key.path=value` assignments. The value is decoded as JSON
	// and falls back to a plain string.
	Set []string
	// Add holds `key.path` or `key.path@index` array insertions.
	Add []string
	// Remove holds `key.path@index` array removals.
	Remove []string
	Validate bool

	LogFormat string
	LogLevel  string
}

// Assignment is one parsed Set entry.
type Assignment struct {
	Path  keypath.Path
	Value any
}

// ArrayOp is one parsed Add or Remove entry.
type ArrayOp struct {
	Path  keypath.Path
	Index int
	// Append is set when no index was given.
	Append bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.FieldsPath == "" {
		return nil, errors.New("FieldsPath is a required configuration field and cannot be empty")
	}

	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if _, err := cfg.Assignments(); err != nil {
		return nil, err
	}
	if _, err := parseArrayOps(cfg.Add, false); err != nil {
		return nil, fmt.Errorf("invalid --add: %w", err)
	}
	if _, err := parseArrayOps(cfg.Remove, true); err != nil {
		return nil, fmt.Errorf("invalid --remove: %w", err)
	}

	return &cfg, nil
}

// Assignments parses Set.
func (c *Config) Assignments() ([]Assignment, error) {
	out := make([]Assignment, 0, len(c.Set))
	for _, raw := range c.Set {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", raw)
		}
		p, err := keypath.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", raw, err)
		}
		if p.IsEmpty() {
			return nil, fmt.Errorf("invalid --set %q: empty key", raw)
		}
		out = append(out, Assignment{Path: p, Value: decodeValue(value)})
	}
	return out, nil
}

// AddOps parses Add. A missing index appends.
func (c *Config) AddOps() []ArrayOp {
	ops, _ := parseArrayOps(c.Add, false)
	return ops
}

// RemoveOps parses Remove.
func (c *Config) RemoveOps() []ArrayOp {
	ops, _ := parseArrayOps(c.Remove, true)
	return ops
}

func parseArrayOps(raws []string, needIndex bool) ([]ArrayOp, error) {
	out := make([]ArrayOp, 0, len(raws))
	for _, raw := range raws {
		op := ArrayOp{Append: true}
		key := raw
		if at := strings.LastIndexByte(raw, '@'); at >= 0 {
			i, err := strconv.Atoi(raw[at+1:])
			if err != nil || i < 0 {
				return nil, fmt.Errorf("%q: index must be a non-negative integer", raw)
			}
			key = raw[:at]
			op.Index, op.Append = i, false
		} else if needIndex {
			return nil, fmt.Errorf("%q: expected key.path@index", raw)
		}
		p, err := keypath.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", raw, err)
		}
		op.Path = p
		out = append(out, op)
	}
	return out, nil
}

func decodeValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
