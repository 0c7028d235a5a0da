// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Selection failures
var (
	ErrNoDevices        = errors.New("no physical devices found")
	ErrNoSuitableDevice = errors.New("no suitable physical device found")
)

// QueueFamilies holds the graphics and present queue family indices
// of a physical device
type QueueFamilies struct {
	Graphics    uint32
	Present     uint32
	HasGraphics bool
	HasPresent  bool
}

// Complete reports whether both families were found
func (q QueueFamilies) Complete() bool {
	return q.HasGraphics && q.HasPresent
}

// Shared reports whether graphics and present use the same family
func (q QueueFamilies) Shared() bool {
	return q.Complete() && q.Graphics == q.Present
}

// Unique returns the distinct family indices, graphics first.
// One device queue is created per returned index.
func (q QueueFamilies) Unique() []uint32 {
	var unique []uint32
	if q.HasGraphics {
		unique = append(unique, q.Graphics)
	}
	if q.HasPresent && (!q.HasGraphics || q.Present != q.Graphics) {
		unique = append(unique, q.Present)
	}
	return unique
}

func (q QueueFamilies) String() string {
	return fmt.Sprintf("graphics=%d(%t) present=%d(%t)", q.Graphics, q.HasGraphics, q.Present, q.HasPresent)
}

// FindQueueFamilies picks the first graphics capable family.
// The present family is the graphics family when it can present,
// otherwise the first family that can.
func FindQueueFamilies(families []vk.QueueFamilyProperties, canPresent func(index uint32) bool) QueueFamilies {
	var q QueueFamilies
	for i, family := range families {
		if family.QueueCount > 0 && family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			q.Graphics = uint32(i)
			q.HasGraphics = true
			break
		}
	}

	if q.HasGraphics && canPresent(q.Graphics) {
		q.Present = q.Graphics
		q.HasPresent = true
		return q
	}

	for i := range families {
		if canPresent(uint32(i)) {
			q.Present = uint32(i)
			q.HasPresent = true
			break
		}
	}
	return q
}

// Candidate is a physical device with everything the
// suitability check needs already queried
type Candidate struct {
	Device           vk.PhysicalDevice
	Name             string
	Families         QueueFamilies
	Extensions       []string
	FormatCount      int
	PresentModeCount int
}

// Suitable returns nil when the device can drive the surface,
// otherwise an error naming the first missing capability
func (c Candidate) Suitable(requiredExtensions []string) error {
	if !c.Families.HasGraphics {
		return errors.New("no graphics queue family")
	}
	if !c.Families.HasPresent {
		return errors.New("no queue family can present to the surface")
	}
	for _, req := range requiredExtensions {
		if !hasExtension(c.Extensions, req) {
			return errors.Errorf("missing extension %s", strings.TrimSuffix(req, "\x00"))
		}
	}
	if c.FormatCount == 0 {
		return errors.New("no surface formats")
	}
	if c.PresentModeCount == 0 {
		return errors.New("no present modes")
	}
	return nil
}

// Pick returns the first suitable candidate in enumeration order
func Pick(candidates []Candidate, requiredExtensions []string) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, ErrNoDevices
	}

	reasons := make([]string, 0, len(candidates))
	for i, c := range candidates {
		err := c.Suitable(requiredExtensions)
		if err == nil {
			return c, nil
		}
		reasons = append(reasons, fmt.Sprintf("#%d %s: %s", i, c.Name, err))
	}
	return Candidate{}, errors.Wrap(ErrNoSuitableDevice, strings.Join(reasons, "; "))
}

func hasExtension(list []string, name string) bool {
	name = strings.TrimSuffix(name, "\x00")
	for _, ext := range list {
		if strings.TrimSuffix(ext, "\x00") == name {
			return true
		}
	}
	return false
}
