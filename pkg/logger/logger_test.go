package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("invalid level", func(t *testing.T) {
		config := &Config{Level: "trace", Format: TextFormat}
		assert.Error(t, config.Validate())
	})

	t.Run("invalid format", func(t *testing.T) {
		config := &Config{Level: InfoLevel, Format: "yaml"}
		assert.Error(t, config.Validate())
	})
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, DisableTimestamp: true}, &buf)
	require.NoError(t, err)

	log.WithField("job_id", "abc").Info("run started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run started", entry["msg"])
	assert.Equal(t, "abc", entry["job_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogger_FieldsAccumulate(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: DebugLevel, Format: JSONFormat, DisableTimestamp: true}, &buf)
	require.NoError(t, err)

	log.WithComponent("matcher").WithFields(Fields{"payouts": 3}).Debug("pass complete")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "matcher", entry["component"])
	assert.Equal(t, float64(3), entry["payouts"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: ErrorLevel, Format: TextFormat}, &buf)
	require.NoError(t, err)

	log.Info("should be suppressed")
	assert.Zero(t, buf.Len())

	log.Error("should be written")
	assert.Contains(t, buf.String(), "should be written")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "debug", want: DebugLevel},
		{input: "INFO", want: InfoLevel},
		{input: "", want: InfoLevel},
		{input: "warning", want: WarnLevel},
		{input: " error ", want: ErrorLevel},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}
