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

// SwapchainDetails is the surface support of a physical device.
// It's only needed while the swapchain is created, Free it afterwards.
type SwapchainDetails struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QuerySwapchainDetails queries capabilities, formats and present modes
// of the surface on the given device
func QuerySwapchainDetails(pd vk.PhysicalDevice, surface vk.Surface) (*SwapchainDetails, error) {
	var details SwapchainDetails

	ret := vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &details.Capabilities)
	if err := setupResult("vk.GetPhysicalDeviceSurfaceCapabilities()", ret); err != nil {
		return nil, err
	}
	details.Capabilities.Deref()
	details.Capabilities.CurrentExtent.Deref()
	details.Capabilities.MinImageExtent.Deref()
	details.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	ret = vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, nil)
	if err := setupResult("vk.GetPhysicalDeviceSurfaceFormats()", ret); err != nil {
		return nil, err
	}
	if formatCount > 0 {
		details.Formats = make([]vk.SurfaceFormat, formatCount)
		ret = vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, details.Formats)
		if err := setupResult("vk.GetPhysicalDeviceSurfaceFormats()", ret); err != nil {
			return nil, err
		}
		details.Formats = details.Formats[:formatCount]
		for i := range details.Formats {
			details.Formats[i].Deref()
		}
	}

	var modeCount uint32
	ret = vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &modeCount, nil)
	if err := setupResult("vk.GetPhysicalDeviceSurfacePresentModes()", ret); err != nil {
		return nil, err
	}
	if modeCount > 0 {
		details.PresentModes = make([]vk.PresentMode, modeCount)
		ret = vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &modeCount, details.PresentModes)
		if err := setupResult("vk.GetPhysicalDeviceSurfacePresentModes()", ret); err != nil {
			return nil, err
		}
		details.PresentModes = details.PresentModes[:modeCount]
	}

	return &details, nil
}

// Free drops the queried lists. Safe to call more than once.
func (d *SwapchainDetails) Free() {
	if d == nil {
		return
	}
	d.Formats = nil
	d.PresentModes = nil
	d.Capabilities.Free()
}

// Freed reports whether the lists were released
func (d *SwapchainDetails) Freed() bool {
	return d == nil || (d.Formats == nil && d.PresentModes == nil)
}

// ChooseSurfaceFormat prefers BGRA8 sRGB with the nonlinear sRGB color space,
// otherwise it takes the first format offered
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	if len(formats) == 0 {
		return vk.SurfaceFormat{}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox, FIFO is always available
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent returns the surface extent, or the window size clamped to
// the supported range when the surface leaves it to the application
func ChooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum.
// A maximum of 0 means there is no limit.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseSharingMode is exclusive when one family does both graphics and
// present, concurrent between the two families otherwise
func ChooseSharingMode(families device.QueueFamilies) (vk.SharingMode, []uint32) {
	if families.Graphics == families.Present {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, []uint32{families.Graphics, families.Present}
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (v *VulkanRenderer) createSwapchain() error {
	details, err := QuerySwapchainDetails(v.physicalDevice, v.surface)
	if err != nil {
		return err
	}
	defer details.Free()

	surfaceFormat := ChooseSurfaceFormat(details.Formats)
	presentMode := ChoosePresentMode(details.PresentModes)
	width, height := v.window.ClientSize()
	extent := ChooseExtent(details.Capabilities, width, height)
	imageCount := ChooseImageCount(details.Capabilities)
	sharingMode, familyIndices := ChooseSharingMode(v.families)

	scci := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               v.surface,
		MinImageCount:         imageCount,
		ImageFormat:           surfaceFormat.Format,
		ImageColorSpace:       surfaceFormat.ColorSpace,
		ImageExtent:           extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(familyIndices)),
		PQueueFamilyIndices:   familyIndices,
		PreTransform:          details.Capabilities.CurrentTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           presentMode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}

	var swapchain vk.Swapchain
	if err := setupResult("vk.CreateSwapchain()", vk.CreateSwapchain(v.logicalDevice, &scci, nil, &swapchain)); err != nil {
		return err
	}
	v.release.push("swapchain", func() {
		vk.DestroySwapchain(v.logicalDevice, swapchain, nil)
		v.swapchainImages = nil
	})
	v.swapchain = swapchain
	v.imageFormat = surfaceFormat.Format
	v.imageColorspace = surfaceFormat.ColorSpace
	v.extent = extent

	var numImages uint32
	if err := setupResult("vk.GetSwapchainImages(num)", vk.GetSwapchainImages(v.logicalDevice, v.swapchain, &numImages, nil)); err != nil {
		return err
	}
	images := make([]vk.Image, numImages)
	if err := setupResult("vk.GetSwapchainImages(images)", vk.GetSwapchainImages(v.logicalDevice, v.swapchain, &numImages, images)); err != nil {
		return err
	}
	v.swapchainImages = images[:numImages]

	log.WithFields(log.Fields{
		"format":      surfaceFormat.Format,
		"colorSpace":  surfaceFormat.ColorSpace,
		"presentMode": presentMode,
		"extent":      []uint32{extent.Width, extent.Height},
		"requested":   imageCount,
		"images":      numImages,
		"sharing":     sharingMode,
	}).Info("swapchain created")
	return nil
}

func (v *VulkanRenderer) createImageViews() error {
	v.swapchainImageViews = make([]vk.ImageView, 0, len(v.swapchainImages))
	for _, image := range v.swapchainImages {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   v.imageFormat,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		if err := setupResult("vk.CreateImageView()", vk.CreateImageView(v.logicalDevice, &ivci, nil, &imageView)); err != nil {
			return err
		}
		v.release.push("image view", func() {
			vk.DestroyImageView(v.logicalDevice, imageView, nil)
		})
		v.swapchainImageViews = append(v.swapchainImageViews, imageView)
	}
	return nil
}
