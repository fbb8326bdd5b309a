package logsvc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core"
)

func TestRollbarLogger_fields(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Env = "PROD" // json output
	conf.LogLevel = "info"
	buf := new(bytes.Buffer)
	logger := NewRollbarLogger(buf, "api", conf)
	logger.Enable(false)

	logger.Debug("hidden")
	assert.Zero(t, buf.Len(), "below level")

	logger.Warn(
		"creating term",
		errors.New("term overlaps"),
		map[string]interface{}{"term": "Term 2"},
		core.Actor{ID: "u1", Username: "admin", SchoolID: "s1"},
	)
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "creating term", line["msg"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "api", line["component"])
	assert.Equal(t, "term overlaps", line["error"])
	assert.Equal(t, "Term 2", line["term"])
	assert.Equal(t, "admin", line["user"])
	assert.Equal(t, "s1", line["school"])
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewTestLogger()
	err := errors.New("boom")
	args, _ := logger.prepare("msg", []interface{}{core.Actor{ID: "1"}, err, core.Actor{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", err}, args, "actors are not forwarded")
}
