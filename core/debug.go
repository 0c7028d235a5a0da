// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"unsafe"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// debugReportFlags subscribes to warnings and errors only
var debugReportFlags = vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit)

// debugReportCallback forwards validation messages verbatim to the log.
// It never asks the layer to abort the call.
func debugReportCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	entry := log.WithFields(log.Fields{
		"layer": pLayerPrefix,
		"code":  messageCode,
	})
	if flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0 {
		entry.Error(pMessage)
	} else {
		entry.Warn(pMessage)
	}
	return vk.Bool32(vk.False)
}

func (v *VulkanInstance) createDebugReport() error {
	dbgCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       debugReportFlags,
		PfnCallback: debugReportCallback,
	}

	var callback vk.DebugReportCallback
	if err := setupResult("vk.CreateDebugReportCallback()", vk.CreateDebugReportCallback(v.instance, &dbgCreateInfo, nil, &callback)); err != nil {
		return err
	}
	v.release.push("debug report", func() {
		vk.DestroyDebugReportCallback(v.instance, callback, nil)
	})
	v.debugCallback = callback
	return nil
}
