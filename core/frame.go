// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// frameBackend is the per-frame device work, addressed by in-flight slot
type frameBackend interface {
	waitForFence(slot int) vk.Result
	resetFence(slot int) vk.Result
	acquireImage(slot int) (uint32, vk.Result)
	record(slot int, imageIndex uint32) error
	submit(slot int) vk.Result
	present(slot int, imageIndex uint32) vk.Result
}

// FrameLoop drives wait, acquire, record, submit and present.
// Each in-flight slot has its own command buffer, semaphores and fence,
// a slot is reused only after waiting on its own fence.
type FrameLoop struct {
	backend      frameBackend
	depth        int
	presentFatal bool

	frame           uint64
	waits           uint64
	submits         uint64
	presents        uint64
	presentFailures uint64
}

func newFrameLoop(backend frameBackend, depth int, presentFatal bool) *FrameLoop {
	if depth < 1 {
		depth = 1
	}
	return &FrameLoop{
		backend:      backend,
		depth:        depth,
		presentFatal: presentFatal,
	}
}

// Slot is the in-flight slot the next frame uses
func (f *FrameLoop) Slot() int {
	return int(f.frame % uint64(f.depth))
}

// Frames is the number of frames that reached the present step
func (f *FrameLoop) Frames() uint64 { return f.frame }

// Waits is the number of completed fence waits
func (f *FrameLoop) Waits() uint64 { return f.waits }

// Submits is the number of successful queue submissions
func (f *FrameLoop) Submits() uint64 { return f.submits }

// Presents is the number of successful presents
func (f *FrameLoop) Presents() uint64 { return f.presents }

// PresentFailures counts presents that failed and were ignored
func (f *FrameLoop) PresentFailures() uint64 { return f.presentFailures }

// Draw renders a single frame. Any returned error leaves the loop
// unusable since the slot fence may never be signaled again.
func (f *FrameLoop) Draw() error {
	slot := f.Slot()

	if err := frameResult("vk.WaitForFences()", f.backend.waitForFence(slot)); err != nil {
		return err
	}
	f.waits++
	if err := frameResult("vk.ResetFences()", f.backend.resetFence(slot)); err != nil {
		return err
	}

	imageIndex, ret := f.backend.acquireImage(slot)
	switch ret {
	case vk.Success:
	case vk.Suboptimal:
		log.WithField("frame", f.frame).Debug("acquired image from a suboptimal swapchain")
	case vk.ErrorOutOfDate:
		return newError(KindOutOfDate, "vk.AcquireNextImage()", errors.New("swapchain out of date"))
	default:
		return frameResult("vk.AcquireNextImage()", ret)
	}

	if err := f.backend.record(slot, imageIndex); err != nil {
		return newError(KindFrame, "record", err)
	}

	if err := frameResult("vk.QueueSubmit()", f.backend.submit(slot)); err != nil {
		return err
	}
	f.submits++

	ret = f.backend.present(slot, imageIndex)
	f.frame++
	switch ret {
	case vk.Success:
	case vk.Suboptimal:
		log.WithField("frame", f.frame).Debug("presented to a suboptimal swapchain")
	case vk.ErrorOutOfDate:
		return newError(KindOutOfDate, "vk.QueuePresent()", errors.New("swapchain out of date"))
	default:
		err := checkResult(KindPresent, "vk.QueuePresent()", ret)
		if f.presentFatal {
			return err
		}
		f.presentFailures++
		log.WithError(err).Warn("present failed, continuing")
		return nil
	}
	f.presents++
	return nil
}
