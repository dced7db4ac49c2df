package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "1616", cfg.Port)
	assert.Equal(t, "ADMIN.CHL", cfg.Channel)
	assert.Equal(t, "QMEXAMPLES", cfg.QManager)
	assert.Equal(t, 3*time.Second, cfg.WaitInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.BackoffBase)
	assert.Equal(t, 30*time.Second, cfg.BackoffMax)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.Len(t, cfg.Options(), 2)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MQ_HOST", "mq.example.com")
	t.Setenv("MQ_PORT", "1414")
	t.Setenv("MQ_QMGR", "QM1")
	t.Setenv("MQ_CHANNEL", "DEV.APP.SVRCONN")
	t.Setenv("MQ_WAIT_INTERVAL", "250ms")
	t.Setenv("MQ_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mq.example.com", cfg.Host)
	assert.Equal(t, "1414", cfg.Port)
	assert.Equal(t, "QM1", cfg.QManager)
	assert.Equal(t, "DEV.APP.SVRCONN", cfg.Channel)
	assert.Equal(t, 250*time.Millisecond, cfg.WaitInterval)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MQ_QMGR=QMFILE\nMQ_STATUS_ADDR=:9102\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("MQ_QMGR")
		os.Unsetenv("MQ_STATUS_ADDR")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "QMFILE", cfg.QManager)
	assert.Equal(t, ":9102", cfg.StatusAddr)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MQ_PORT", "abc")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_InvalidBackoff(t *testing.T) {
	t.Setenv("MQ_BACKOFF_BASE", "10s")
	t.Setenv("MQ_BACKOFF_MAX", "1s")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("MQ_LOG_LEVEL", "loud")
	_, err := Load("")
	assert.Error(t, err)
}
