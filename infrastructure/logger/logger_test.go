package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogger_AddsCallerFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(bytes.NewBuffer(nil))

	GetLogger().WithField("job_id", "job-1").Info("claimed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "claimed", line["msg"])
	assert.Equal(t, "job-1", line["job_id"])
	assert.Equal(t, "logger_test.go", line["file"])
	assert.Contains(t, line["function"], "TestGetLogger_AddsCallerFields")
}

func TestResolveOutput_StdoutByDefault(t *testing.T) {
	w := resolveOutput("dev", false)
	assert.NotNil(t, w)
}
