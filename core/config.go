// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"

	"github.com/gobuffalo/envy"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Shader sources understood by NewShaderSource
const (
	ShaderSourceDir = "dir"
	ShaderSourceKar = "kar"
	ShaderSourceBox = "box"
)

// Environment variables that override the configuration
const (
	EnvDebug          = "TRIANGLE_DEBUG"
	EnvFramesInFlight = "TRIANGLE_FRAMES_IN_FLIGHT"
	EnvPresentFatal   = "TRIANGLE_PRESENT_FATAL"
	EnvShaderSource   = "TRIANGLE_SHADER_SOURCE"
	EnvFps            = "TRIANGLE_FPS"
	EnvLogLevel       = "TRIANGLE_LOG_LEVEL"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	LogLevel string `toml:"log_level"`

	Time     TimeConfiguration     `toml:"time"`
	Instance InstanceConfiguration `toml:"instance"`
	Renderer RendererConfiguration `toml:"renderer"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `toml:"fps"`

	// EventPollDelay is the window event polling interval in milliseconds
	EventPollDelay int `toml:"event_poll_delay"`
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	ApplicationName    string `toml:"application_name"`
	ApplicationVersion [3]int `toml:"application_version"`

	// DebugMode enables validation layers and the debug report callback
	DebugMode  bool     `toml:"debug"`
	Layers     []string `toml:"layers"`
	Extensions []string `toml:"extensions"`
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32 `toml:"width"`
	ScreenHeight uint32 `toml:"height"`

	DeviceExtensions []string `toml:"device_extensions"`

	// ShaderSource is one of dir, kar or box. Shader names are
	// relative to ShaderDirectory, the archive root or the box root.
	ShaderSource    string `toml:"shader_source"`
	ShaderDirectory string `toml:"shader_directory"`
	ShaderArchive   string `toml:"shader_archive"`
	VertexShader    string `toml:"vertex_shader"`
	FragmentShader  string `toml:"fragment_shader"`
	ShaderEntry     string `toml:"shader_entry"`
	VertexCount     uint32 `toml:"vertex_count"`

	ClearColor glm.Vec4 `toml:"clear_color"`

	// FramesInFlight is the number of frames the CPU may record
	// ahead of the GPU, each with its own command buffer and sync objects
	FramesInFlight int `toml:"frames_in_flight"`

	// PresentFailureFatal makes a failed present end the frame loop,
	// otherwise the failure is logged and the next frame proceeds
	PresentFailureFatal bool `toml:"present_failure_fatal"`
}

// DefaultConfiguration returns the configuration of the sample triangle
func DefaultConfiguration() Configuration {
	return Configuration{
		LogLevel: "info",
		Time: TimeConfiguration{
			FramesPerSecond: 0,
			EventPollDelay:  10,
		},
		Instance: InstanceConfiguration{
			ApplicationName:    "Vulkan Triangle",
			ApplicationVersion: [3]int{1, 0, 0},
		},
		Renderer: RendererConfiguration{
			ScreenWidth:         800,
			ScreenHeight:        600,
			DeviceExtensions:    []string{"VK_KHR_swapchain"},
			ShaderSource:        ShaderSourceDir,
			ShaderDirectory:     "shaders",
			ShaderArchive:       "shaders.kar",
			VertexShader:        "vertex.spv",
			FragmentShader:      "fragment.spv",
			ShaderEntry:         "main",
			VertexCount:         3,
			ClearColor:          glm.Vec4{0, 0, 0, 1},
			FramesInFlight:      1,
			PresentFailureFatal: true,
		},
	}
}

// LoadConfiguration builds the configuration from defaults, then the toml
// file at path (when not empty), then a .env file and the environment.
func LoadConfiguration(path string) (Configuration, error) {
	cfg := DefaultConfiguration()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read configuration")
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse configuration %s", path)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, errors.Wrap(err, "load .env")
	}
	envy.Reload()

	if err := applyEnvironment(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnvironment(cfg *Configuration) error {
	if v := envy.Get(EnvDebug, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, EnvDebug)
		}
		cfg.Instance.DebugMode = b
	}
	if v := envy.Get(EnvPresentFatal, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, EnvPresentFatal)
		}
		cfg.Renderer.PresentFailureFatal = b
	}
	if v := envy.Get(EnvFramesInFlight, ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, EnvFramesInFlight)
		}
		cfg.Renderer.FramesInFlight = n
	}
	if v := envy.Get(EnvFps, ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, EnvFps)
		}
		cfg.Time.FramesPerSecond = n
	}
	cfg.Renderer.ShaderSource = envy.Get(EnvShaderSource, cfg.Renderer.ShaderSource)
	cfg.LogLevel = envy.Get(EnvLogLevel, cfg.LogLevel)
	return nil
}

// Validate checks the configuration for values the renderer cannot work with
func (c Configuration) Validate() error {
	r := c.Renderer
	switch {
	case r.FramesInFlight < 1:
		return errors.Errorf("frames in flight must be at least 1, got %d", r.FramesInFlight)
	case r.ScreenWidth == 0 || r.ScreenHeight == 0:
		return errors.Errorf("invalid window size %dx%d", r.ScreenWidth, r.ScreenHeight)
	case r.VertexShader == "" || r.FragmentShader == "":
		return errors.New("vertex and fragment shader paths are required")
	case r.ShaderEntry == "":
		return errors.New("shader entry point is required")
	case c.Time.FramesPerSecond < 0:
		return errors.Errorf("negative frames per second %d", c.Time.FramesPerSecond)
	}
	switch r.ShaderSource {
	case ShaderSourceDir, ShaderSourceKar, ShaderSourceBox:
	default:
		return errors.Errorf("unknown shader source %q", r.ShaderSource)
	}
	return nil
}
