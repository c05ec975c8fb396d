package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/jsonform/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		want       *app.Config
		wantExit   bool
		wantCode   int
		wantErr    string
		wantOutput string
	}{
		{
			name: "positional path with defaults",
			args: []string{"form.json"},
			want: &app.Config{FieldsPath: "form.json", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "all flags",
			args: []string{
				"-f", "form.yaml", "--values", "v.json",
				"--set", "a=1", "--set", "b.c=x",
				"--add", "items", "--remove", "items@0",
				"--validate", "--log-format", "JSON", "--log-level", "debug",
			},
			want: &app.Config{
				FieldsPath: "form.yaml",
				ValuesPath: "v.json",
				Set:        []string{"a=1", "b.c=x"},
				Add:        []string{"items"},
				Remove:     []string{"items@0"},
				Validate:   true,
				LogFormat:  "json",
				LogLevel:   "debug",
			},
		},
		{
			name:       "help",
			args:       []string{"-h"},
			wantExit:   true,
			wantOutput: "Usage:",
		},
		{
			name:       "no path prints usage",
			args:       nil,
			wantExit:   true,
			wantOutput: "jsonform [options] [FIELDS_PATH]",
		},
		{
			name:     "unknown flag",
			args:     []string{"--this-is-not-a-valid-flag"},
			wantCode: 2,
			wantErr:  "unknown flag: --this-is-not-a-valid-flag",
		},
		{
			name:     "bad log format",
			args:     []string{"--log-format", "xml", "form.json"},
			wantCode: 2,
			wantErr:  "invalid log-format",
		},
		{
			name:     "bad log level",
			args:     []string{"--log-level", "trace", "form.json"},
			wantCode: 2,
			wantErr:  "invalid log-level",
		},
		{
			name:     "malformed remove",
			args:     []string{"--remove", "items", "form.json"},
			wantCode: 2,
			wantErr:  "expected key.path@index",
		},
		{
			name:     "too many arguments",
			args:     []string{"a.json", "b.json"},
			wantCode: 2,
			wantErr:  "accepts at most 1 arg",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(tc.args, out)

			if tc.wantErr != "" {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			assert.Equal(t, tc.want, cfg)
			if tc.wantOutput != "" {
				assert.Contains(t, out.String(), tc.wantOutput)
			}
		})
	}
}
