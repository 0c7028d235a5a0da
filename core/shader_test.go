// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/triangle/utility/kar"
	"github.com/gobuffalo/packr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spirvHeader is the first five words of a SPIR-V module
var spirvHeader = []byte{
	0x03, 0x02, 0x23, 0x07,
	0x00, 0x00, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x10, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

func tempShaderDir(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "shaders")
	require.NoError(t, err)
	for name, data := range files {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), data, 0644))
	}
	return dir
}

func TestDirShaderSource(t *testing.T) {
	dir := tempShaderDir(t, map[string][]byte{
		"vertex.spv": spirvHeader,
		"odd.spv":    spirvHeader[:7],
		"empty.spv":  {},
	})
	defer os.RemoveAll(dir)
	source := DirShaderSource{Root: dir}

	data, err := source.Load("vertex.spv")
	require.NoError(t, err)
	assert.Equal(t, spirvHeader, data)

	code, err := LoadShaderCode(source, "vertex.spv")
	require.NoError(t, err)
	assert.Len(t, code, 5)
	assert.Equal(t, uint32(0x07230203), code[0])

	_, err = source.Load("missing.spv")
	assert.Error(t, err)

	for _, name := range []string{"missing.spv", "odd.spv", "empty.spv"} {
		_, err := LoadShaderCode(source, name)
		require.Error(t, err, name)
		assert.True(t, IsKind(err, KindSetup), name)
	}
}

func TestKarShaderSource(t *testing.T) {
	builder, err := kar.NewBuilder(kar.Header{Author: "test", Version: 1})
	require.NoError(t, err)
	defer builder.Close()
	require.NoError(t, builder.Add("vertex.spv", bytes.NewReader(spirvHeader)))

	var archive bytes.Buffer
	_, err = builder.WriteTo(&archive)
	require.NoError(t, err)

	dir := tempShaderDir(t, map[string][]byte{"shaders.kar": archive.Bytes()})
	defer os.RemoveAll(dir)

	source, err := OpenKarShaderSource(filepath.Join(dir, "shaders.kar"))
	require.NoError(t, err)
	defer source.Close()

	code, err := LoadShaderCode(source, "vertex.spv")
	require.NoError(t, err)
	assert.Len(t, code, 5)

	_, err = LoadShaderCode(source, "fragment.spv")
	assert.True(t, IsKind(err, KindSetup))

	_, err = OpenKarShaderSource(filepath.Join(dir, "missing.kar"))
	assert.True(t, IsKind(err, KindSetup))
}

func TestBoxShaderSource(t *testing.T) {
	source := BoxShaderSource{Box: packr.NewBox("../shaders")}
	data, err := source.Load("triangle.vert")
	require.NoError(t, err)
	assert.Contains(t, string(data), "gl_VertexIndex")

	_, err = source.Load("missing.spv")
	assert.Error(t, err)
}

func TestNewShaderSource(t *testing.T) {
	cfg := DefaultConfiguration().Renderer

	source, err := NewShaderSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, DirShaderSource{Root: "shaders"}, source)

	cfg.ShaderSource = ShaderSourceBox
	source, err = NewShaderSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, BoxShaderSource{}, source)

	cfg.ShaderSource = "zip"
	_, err = NewShaderSource(cfg)
	assert.True(t, IsKind(err, KindSetup))
}

func TestShaderStage(t *testing.T) {
	stage, err := VulkanShader{shaderType: VertexShaderType}.Stage("main")
	require.NoError(t, err)
	assert.Equal(t, "main\x00", stage.PName)

	_, err = VulkanShader{shaderType: UnknownShaderType}.Stage("main")
	assert.Error(t, err)
}
