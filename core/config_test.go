// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfiguration = `
log_level = "debug"

[time]
fps = 60

[instance]
application_name = "Triangle Test"
application_version = [0, 2, 1]
debug = true

[renderer]
width = 1024
height = 768
shader_source = "kar"
shader_archive = "assets/shaders.kar"
clear_color = [0.1, 0.2, 0.3, 1.0]
frames_in_flight = 2
present_failure_fatal = false
`

func writeConfiguration(t *testing.T, contents string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "triangle.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDefaultConfigurationIsValid(t *testing.T) {
	cfg := DefaultConfiguration()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Renderer.FramesInFlight)
	assert.True(t, cfg.Renderer.PresentFailureFatal)
	assert.Equal(t, uint32(3), cfg.Renderer.VertexCount)
	assert.Equal(t, glm.Vec4{0, 0, 0, 1}, cfg.Renderer.ClearColor)
	assert.Equal(t, []string{"VK_KHR_swapchain"}, cfg.Renderer.DeviceExtensions)
}

func TestLoadConfigurationFile(t *testing.T) {
	cfg, err := LoadConfiguration(writeConfiguration(t, testConfiguration))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 60, cfg.Time.FramesPerSecond)
	assert.Equal(t, 10, cfg.Time.EventPollDelay, "kept from defaults")
	assert.Equal(t, "Triangle Test", cfg.Instance.ApplicationName)
	assert.Equal(t, [3]int{0, 2, 1}, cfg.Instance.ApplicationVersion)
	assert.True(t, cfg.Instance.DebugMode)
	assert.Equal(t, uint32(1024), cfg.Renderer.ScreenWidth)
	assert.Equal(t, ShaderSourceKar, cfg.Renderer.ShaderSource)
	assert.Equal(t, "assets/shaders.kar", cfg.Renderer.ShaderArchive)
	assert.Equal(t, "vertex.spv", cfg.Renderer.VertexShader, "kept from defaults")
	assert.InDelta(t, 0.2, cfg.Renderer.ClearColor.Y(), 1e-6)
	assert.Equal(t, 2, cfg.Renderer.FramesInFlight)
	assert.False(t, cfg.Renderer.PresentFailureFatal)
}

func TestLoadConfigurationEnvironment(t *testing.T) {
	t.Setenv(EnvFramesInFlight, "3")
	t.Setenv(EnvPresentFatal, "false")
	t.Setenv(EnvDebug, "true")
	t.Setenv(EnvShaderSource, ShaderSourceBox)
	t.Setenv(EnvFps, "30")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Renderer.FramesInFlight)
	assert.False(t, cfg.Renderer.PresentFailureFatal)
	assert.True(t, cfg.Instance.DebugMode)
	assert.Equal(t, ShaderSourceBox, cfg.Renderer.ShaderSource)
	assert.Equal(t, 30, cfg.Time.FramesPerSecond)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigurationErrors(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(os.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)

	_, err = LoadConfiguration(writeConfiguration(t, "[renderer\nwidth = "))
	assert.Error(t, err)

	_, err = LoadConfiguration(writeConfiguration(t, "[renderer]\nframes_in_flight = 0\n"))
	assert.Error(t, err)

	t.Setenv(EnvFramesInFlight, "many")
	_, err = LoadConfiguration("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Configuration){
		"frames in flight": func(c *Configuration) { c.Renderer.FramesInFlight = 0 },
		"width":            func(c *Configuration) { c.Renderer.ScreenWidth = 0 },
		"height":           func(c *Configuration) { c.Renderer.ScreenHeight = 0 },
		"vertex shader":    func(c *Configuration) { c.Renderer.VertexShader = "" },
		"fragment shader":  func(c *Configuration) { c.Renderer.FragmentShader = "" },
		"entry point":      func(c *Configuration) { c.Renderer.ShaderEntry = "" },
		"fps":              func(c *Configuration) { c.Time.FramesPerSecond = -1 },
		"shader source":    func(c *Configuration) { c.Renderer.ShaderSource = "zip" },
	}
	for name, breakIt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			breakIt(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
