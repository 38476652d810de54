package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream1090/internal/dsp"
)

func TestStartRejectsUnknownSampleRate(t *testing.T) {
	app := NewApplication(Config{SampleRate: "5"})
	err := app.Start()
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedConfig))
}

func TestStartRejectsInvalidRatePair(t *testing.T) {
	app := NewApplication(Config{SampleRate: "8", OutputRate: "6"})
	err := app.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConfig))
}

func TestStartRejectsMissingTapsFile(t *testing.T) {
	app := NewApplication(Config{
		SampleRate: "2.4",
		TapsFile:   filepath.Join(t.TempDir(), "absent.txt"),
	})
	assert.Error(t, app.Start())
}

func TestBuildPipelineDefaultIsEmpty(t *testing.T) {
	app := NewApplication(Config{})
	p, err := app.buildPipeline(dsp.Rate2_4)
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestBuildPipelineWithIQFilter(t *testing.T) {
	app := NewApplication(Config{IQFilter: true})
	p, err := app.buildPipeline(dsp.Rate6_0)
	require.NoError(t, err)
	assert.False(t, p.Empty())
}

func TestBuildPipelineWithTapsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taps.txt")
	require.NoError(t, os.WriteFile(path, []byte("0.5\n0.5\n"), 0o644))

	app := NewApplication(Config{TapsFile: path})
	p, err := app.buildPipeline(dsp.Rate2_4)
	require.NoError(t, err)
	assert.False(t, p.Empty())
}

func TestSetupOutputWithLogDir(t *testing.T) {
	app := NewApplication(Config{LogDir: t.TempDir(), LogRotateUTC: true})
	require.NoError(t, app.setupOutput())
	require.NotNil(t, app.frameOut)
	require.NotNil(t, app.logRotator)
	assert.NoError(t, app.logRotator.Close())
}
