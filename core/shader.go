// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io"
	"os"
	"path/filepath"

	"github.com/devblok/triangle/utility/kar"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/mmap"
)

// ShaderSource provides pre-compiled SPIR-V bytecode by name
type ShaderSource interface {
	Load(name string) ([]byte, error)
}

// NewShaderSource creates the source the configuration asks for
func NewShaderSource(cfg RendererConfiguration) (ShaderSource, error) {
	switch cfg.ShaderSource {
	case ShaderSourceDir:
		return DirShaderSource{Root: cfg.ShaderDirectory}, nil
	case ShaderSourceKar:
		return OpenKarShaderSource(cfg.ShaderArchive)
	case ShaderSourceBox:
		return BoxShaderSource{Box: packr.NewBox("../shaders")}, nil
	}
	return nil, newError(KindSetup, "core.NewShaderSource()", errors.Errorf("unknown shader source %q", cfg.ShaderSource))
}

// DirShaderSource reads shaders from files relative to Root
type DirShaderSource struct {
	Root string
}

// Load reads the whole file. Failing to open, stat,
// read or close it are all errors.
func (d DirShaderSource) Load(name string) (data []byte, err error) {
	path := filepath.Join(d.Root, filepath.FromSlash(name))
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open shader")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			data, err = nil, errors.Wrap(cerr, "close shader")
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat shader")
	}
	data = make([]byte, info.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	return data, nil
}

// KarShaderSource reads shaders from a memory mapped kar archive
type KarShaderSource struct {
	mapped  *mmap.ReaderAt
	archive *kar.Archive
}

// OpenKarShaderSource maps the archive at path
func OpenKarShaderSource(path string) (*KarShaderSource, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, newError(KindSetup, "mmap.Open()", err)
	}
	archive, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, newError(KindSetup, "kar.Open()", errors.Wrap(err, path))
	}
	return &KarShaderSource{mapped: r, archive: archive}, nil
}

// Load implements interface
func (k *KarShaderSource) Load(name string) ([]byte, error) {
	return k.archive.ReadAll(name)
}

// Close unmaps the archive
func (k *KarShaderSource) Close() error {
	return k.mapped.Close()
}

// BoxShaderSource reads shaders bundled into the binary
type BoxShaderSource struct {
	Box packr.Box
}

// Load implements interface
func (b BoxShaderSource) Load(name string) ([]byte, error) {
	return b.Box.Find(name)
}

// LoadShaderCode loads and checks SPIR-V code, which is a whole number of words
func LoadShaderCode(source ShaderSource, name string) ([]uint32, error) {
	data, err := source.Load(name)
	if err != nil {
		return nil, newError(KindSetup, "core.LoadShaderCode()", errors.Wrap(err, name))
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, newError(KindSetup, "core.LoadShaderCode()",
			errors.Errorf("%s: invalid SPIR-V size %d", name, len(data)))
	}
	return SliceUint32(data), nil
}

// VulkanShader is a shader module with its pipeline stage
type VulkanShader struct {
	shaderType ShaderType
	name       string
	module     vk.ShaderModule
	device     vk.Device
}

// NewVulkanShader loads the named shader and wraps it as a shader module
func NewVulkanShader(source ShaderSource, name string, shaderType ShaderType, device vk.Device) (*VulkanShader, error) {
	code, err := LoadShaderCode(source, name)
	if err != nil {
		return nil, err
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}

	var module vk.ShaderModule
	if err := setupResult("vk.CreateShaderModule("+shaderType.String()+")", vk.CreateShaderModule(device, &smci, nil, &module)); err != nil {
		return nil, err
	}

	return &VulkanShader{
		shaderType: shaderType,
		name:       name,
		module:     module,
		device:     device,
	}, nil
}

// Type returns the pipeline stage of the shader
func (v VulkanShader) Type() ShaderType {
	return v.shaderType
}

// Name returns the name the shader was loaded with
func (v VulkanShader) Name() string {
	return v.name
}

// Stage describes the shader as a pipeline stage with the given entry point
func (v VulkanShader) Stage(entry string) (vk.PipelineShaderStageCreateInfo, error) {
	var stage vk.ShaderStageFlagBits
	switch v.shaderType {
	case VertexShaderType:
		stage = vk.ShaderStageVertexBit
	case FragmentShaderType:
		stage = vk.ShaderStageFragmentBit
	default:
		return vk.PipelineShaderStageCreateInfo{}, errors.New("unsupported shader type")
	}
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: v.module,
		PName:  safeString(entry),
	}, nil
}

// Destroy destroys the shader module
func (v VulkanShader) Destroy() {
	vk.DestroyShaderModule(v.device, v.module, nil)
}
