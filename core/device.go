// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/triangle/device"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

func (v *VulkanRenderer) candidate(pd vk.PhysicalDevice) device.Candidate {
	info := device.Describe(pd)
	families := device.FindQueueFamilies(device.QueueFamilyProperties(pd), func(index uint32) bool {
		var supported vk.Bool32
		if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(pd, index, v.surface, &supported)); err != nil {
			return false
		}
		return supported.B()
	})

	c := device.Candidate{
		Device:     pd,
		Name:       info.Name,
		Families:   families,
		Extensions: info.Extensions,
	}
	if details, err := QuerySwapchainDetails(pd, v.surface); err == nil {
		c.FormatCount = len(details.Formats)
		c.PresentModeCount = len(details.PresentModes)
		details.Free()
	} else {
		log.WithError(err).WithField("device", info.Name).Warn("surface query failed")
	}
	return c
}

func (v *VulkanRenderer) pickPhysicalDevice() error {
	available := v.instance.AvailableDevices()
	candidates := make([]device.Candidate, 0, len(available))
	for _, pd := range available {
		candidates = append(candidates, v.candidate(pd))
	}

	picked, err := device.Pick(candidates, v.configuration.DeviceExtensions)
	if err != nil {
		return newError(KindNegotiation, "device.Pick()", err)
	}

	v.physicalDevice = picked.Device
	v.families = picked.Families
	log.WithFields(log.Fields{
		"device":   picked.Name,
		"families": picked.Families.String(),
	}).Info("physical device selected")
	return nil
}

func (v *VulkanRenderer) createLogicalDevice() error {
	unique := v.families.Unique()
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(unique))
	for _, index := range unique {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	layers := v.instance.Layers()
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(v.configuration.DeviceExtensions)),
		PpEnabledExtensionNames: safeStrings(v.configuration.DeviceExtensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	var logicalDevice vk.Device
	if err := setupResult("vk.CreateDevice()", vk.CreateDevice(v.physicalDevice, &dci, nil, &logicalDevice)); err != nil {
		return err
	}
	v.release.push("device", func() {
		vk.DestroyDevice(logicalDevice, nil)
	})
	v.logicalDevice = logicalDevice

	vk.GetDeviceQueue(v.logicalDevice, v.families.Graphics, 0, &v.graphicsQueue)
	vk.GetDeviceQueue(v.logicalDevice, v.families.Present, 0, &v.presentQueue)
	return nil
}
