package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass/config"
	"github.com/stagepass/stagepass/pkg/logger"
	"github.com/stagepass/stagepass/pkg/mailer"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:      config.ServerConfig{Host: "localhost", Port: 0},
		Environment: "development",
		LogLevel:    "disabled",
		Version:     "test",
	}
}

func TestNewApp(t *testing.T) {
	cfg := testConfig()
	a := NewApp(cfg)

	assert.Equal(t, cfg, a.GetConfig())
	assert.NotNil(t, a.GetLogger())
	assert.NotNil(t, a.GetMux())
}

func TestNewApp_Options(t *testing.T) {
	log := logger.NewLogger("disabled")
	m := mailer.NewConsoleMailer(log)

	a := NewApp(testConfig(), WithLogger(log), WithMailer(m))
	assert.Same(t, log, a.GetLogger())
	require.NoError(t, a.InitMailer())
	assert.Same(t, m, a.GetMailer())
}

func TestApp_InitMailer_ConsoleFallback(t *testing.T) {
	a := NewApp(testConfig())
	require.NoError(t, a.InitMailer())

	_, ok := a.GetMailer().(*mailer.ConsoleMailer)
	assert.True(t, ok)
}

func TestApp_InitRepositories_RequiresDB(t *testing.T) {
	a := NewApp(testConfig())
	assert.Error(t, a.InitRepositories())
}

func TestApp_Shutdown_BeforeStart(t *testing.T) {
	a := NewApp(testConfig())
	assert.NoError(t, a.Shutdown(context.Background()))
}
