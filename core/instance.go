// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strings"

	"github.com/devblok/triangle/device"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Names of the debug layer and extension
const (
	ValidationLayer      = "VK_LAYER_KHRONOS_validation"
	DebugReportExtension = "VK_EXT_debug_report"
)

// NewVulkanInstance creates a Vulkan instance with the extensions the window needs.
// In debug mode the validation layer must be present and validation messages
// are forwarded to the log.
func NewVulkanInstance(window Window, cfg InstanceConfiguration) (*VulkanInstance, error) {
	layers := appendUnique(nil, cfg.Layers...)
	var extensions []string
	if window != nil {
		extensions = appendUnique(extensions, window.InstanceExtensions()...)
	}
	extensions = appendUnique(extensions, cfg.Extensions...)
	if cfg.DebugMode {
		layers = appendUnique(layers, ValidationLayer)
		extensions = appendUnique(extensions, DebugReportExtension)
	}
	cfg.Layers = layers
	cfg.Extensions = extensions

	if window == nil || window.ProcAddr() == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, newError(KindSetup, "vk.SetDefaultGetInstanceProcAddr()", err)
		}
	} else {
		vk.SetGetInstanceProcAddr(window.ProcAddr())
	}

	if err := vk.Init(); err != nil {
		return nil, newError(KindSetup, "vk.Init()", err)
	}

	v := &VulkanInstance{
		configuration: cfg,
		surface:       vk.NullSurface,
	}

	err := runSteps(&v.release, v.initSteps()...)
	if err != nil {
		return nil, err
	}
	return v, nil
}

var _ Instance = (*VulkanInstance)(nil)

// initSteps lists the instance objects in creation order
func (v *VulkanInstance) initSteps() []initStep {
	return []initStep{
		{"layers", v.checkLayers},
		{"instance", v.createInstance},
		{"debug report", func() error {
			if !v.configuration.DebugMode {
				return nil
			}
			return v.createDebugReport()
		}},
		{"devices", v.enumerateDevices},
	}
}

// VulkanInstance describes a Vulkan API Instance
type VulkanInstance struct {
	configuration InstanceConfiguration
	release       releaseStack

	availableDevices []vk.PhysicalDevice
	debugCallback    vk.DebugReportCallback
	surface          vk.Surface
	instance         vk.Instance
}

// InstanceLayers lists the layers the loader can enable
func InstanceLayers() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceLayerProperties()")
	}
	props := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceLayerProperties()")
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

// MissingLayers returns the requested layers that are not available
func MissingLayers(requested, available []string) []string {
	var missing []string
	for _, r := range requested {
		if !containsString(available, r) {
			missing = append(missing, strings.TrimSuffix(r, "\x00"))
		}
	}
	return missing
}

func (v *VulkanInstance) checkLayers() error {
	if len(v.configuration.Layers) == 0 {
		return nil
	}
	available, err := InstanceLayers()
	if err != nil {
		return newError(KindNegotiation, "core.checkLayers()", err)
	}
	if missing := MissingLayers(v.configuration.Layers, available); len(missing) > 0 {
		return newError(KindNegotiation, "core.checkLayers()",
			errors.Errorf("requested layers not available: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func (v *VulkanInstance) applicationInfo() *vk.ApplicationInfo {
	ver := v.configuration.ApplicationVersion
	return &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(ver[0], ver[1], ver[2]),
		PApplicationName:   safeString(v.configuration.ApplicationName),
		PEngineName:        safeString("triangle"),
	}
}

func (v *VulkanInstance) createInstance() error {
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        v.applicationInfo(),
		EnabledExtensionCount:   uint32(len(v.configuration.Extensions)),
		PpEnabledExtensionNames: safeStrings(v.configuration.Extensions),
		EnabledLayerCount:       uint32(len(v.configuration.Layers)),
		PpEnabledLayerNames:     safeStrings(v.configuration.Layers),
	}

	var instance vk.Instance
	if err := setupResult("vk.CreateInstance()", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return err
	}
	v.release.push("instance", func() {
		vk.DestroyInstance(instance, nil)
	})
	if err := vk.InitInstance(instance); err != nil {
		return newError(KindSetup, "vk.InitInstance()", err)
	}
	v.instance = instance

	log.WithFields(log.Fields{
		"layers":     v.configuration.Layers,
		"extensions": v.configuration.Extensions,
	}).Info("instance created")
	return nil
}

func (v *VulkanInstance) enumerateDevices() error {
	devices, err := device.Enumerate(v.instance)
	if err != nil {
		if errors.Cause(err) == device.ErrNoDevices {
			return newError(KindNegotiation, "device.Enumerate()", err)
		}
		return newError(KindSetup, "device.Enumerate()", err)
	}
	v.availableDevices = devices
	return nil
}

// CreateSurface implements interface
func (v *VulkanInstance) CreateSurface(window Window) error {
	surface, err := window.CreateSurface(v.instance)
	if err != nil {
		return newError(KindSetup, "core.CreateSurface()", err)
	}
	v.release.push("surface", func() {
		vk.DestroySurface(v.instance, surface, nil)
		v.surface = vk.NullSurface
	})
	v.surface = surface
	return nil
}

// Surface implements interface
func (v *VulkanInstance) Surface() vk.Surface {
	if v.surface == nil {
		return vk.NullSurface
	}
	return v.surface
}

// Inner implements interface
func (v *VulkanInstance) Inner() vk.Instance {
	return v.instance
}

// Extensions implements interface
func (v *VulkanInstance) Extensions() []string {
	return v.configuration.Extensions
}

// Layers implements interface
func (v *VulkanInstance) Layers() []string {
	return v.configuration.Layers
}

// AvailableDevices implements interface
func (v *VulkanInstance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// Destroy releases surface, debug report and instance, in that order
func (v *VulkanInstance) Destroy() {
	v.release.releaseAll()
	v.availableDevices = nil
}
