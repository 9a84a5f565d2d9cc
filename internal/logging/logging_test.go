package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(true, &buf).Debug("module resolved", "spec", "util")
	assert.Equal(t, "msg=\"module resolved\" spec=util\n", buf.String())
}

func TestNewInfoLevelDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(false, &buf)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.Equal(t, "msg=shown\n", buf.String())
}
