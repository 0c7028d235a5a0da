// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestErrorKind(t *testing.T) {
	err := newError(KindNegotiation, "device.Pick()", errors.New("no suitable physical device found"))
	assert.Equal(t, "device.Pick(): no suitable physical device found", err.Error())
	assert.True(t, IsKind(err, KindNegotiation))
	assert.False(t, IsKind(err, KindSetup))

	wrapped := errors.Wrap(err, "bootstrap")
	assert.True(t, IsKind(wrapped, KindNegotiation))

	assert.False(t, IsKind(errors.New("plain"), KindSetup))
	assert.False(t, IsKind(nil, KindSetup))
}

func TestErrorCause(t *testing.T) {
	root := errors.New("root")
	err := newError(KindFrame, "vk.QueueSubmit()", root)
	assert.Equal(t, root, errors.Cause(err))
	assert.True(t, errors.Is(err, root))
}

func TestCheckResult(t *testing.T) {
	assert.NoError(t, setupResult("vk.CreateInstance()", vk.Success))

	err := setupResult("vk.CreateInstance()", vk.ErrorIncompatibleDriver)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSetup))
	assert.Contains(t, err.Error(), "vk.CreateInstance()")

	err = frameResult("vk.QueueSubmit()", vk.ErrorDeviceLost)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindFrame))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "setup", KindSetup.String())
	assert.Equal(t, "negotiation", KindNegotiation.String())
	assert.Equal(t, "frame", KindFrame.String())
	assert.Equal(t, "present", KindPresent.String())
	assert.Equal(t, "out of date", KindOutOfDate.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
