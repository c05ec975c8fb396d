package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name      string
		level     string
		format    string
		wantErr   string
		wantDebug bool
		wantOut   string
	}{
		{name: "defaults", wantOut: "level=INFO"},
		{name: "debug json", level: "debug", format: "json", wantDebug: true, wantOut: `"level":"INFO"`},
		{name: "warn drops info", level: "warn", format: "text"},
		{name: "unknown level", level: "trace", wantErr: `unknown log level "trace"`},
		{name: "unknown format", format: "xml", wantErr: `unknown log format "xml"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger, err := newLogger(tc.level, tc.format, buf)
			if tc.wantErr != "" {
				require.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			logger.Debug("debug record")
			logger.Info("info record")
			assert.Equal(t, tc.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug record")))
			if tc.wantOut == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tc.wantOut)
		})
	}
}

func TestNewApp_RejectsUnknownLogLevel(t *testing.T) {
	_, err := NewApp(&bytes.Buffer{}, &bytes.Buffer{}, &Config{FieldsPath: "f", LogLevel: "verbose"})
	require.ErrorContains(t, err, "failed to configure logging")
}
