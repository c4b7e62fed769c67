package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motion.log")
	Init(Options{Level: "debug", File: path})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	assert.Equal(t, log.DebugLevel, log.GetLevel())
	log.Debugf("detector: hello %d", 42)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "detector: hello 42")
}

func TestInitUnknownLevel(t *testing.T) {
	Init(Options{Level: "chatty"})
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestWriterStdout(t *testing.T) {
	assert.Equal(t, os.Stdout, Writer(Options{}))
}
