// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	log "github.com/sirupsen/logrus"
)

type release struct {
	name string
	fn   func()
}

// releaseStack destroys handles in the reverse order they were created.
// Every successful create pushes its destroy, so a failed initialisation
// can release exactly what exists.
type releaseStack struct {
	items []release
}

func (s *releaseStack) push(name string, fn func()) {
	s.items = append(s.items, release{name: name, fn: fn})
}

func (s *releaseStack) len() int {
	return len(s.items)
}

// releaseAll pops and runs every release, last pushed first
func (s *releaseStack) releaseAll() {
	for len(s.items) > 0 {
		last := len(s.items) - 1
		r := s.items[last]
		s.items = s.items[:last]

		log.WithField("resource", r.name).Debug("release")
		r.fn()
	}
}

// teardown waits for the device to finish all submitted work before
// releasing anything. A failed wait is logged, release still happens.
func teardown(waitIdle func() error, stack *releaseStack) {
	if waitIdle != nil {
		if err := waitIdle(); err != nil {
			log.WithError(err).Error("waiting for device idle")
		}
	}
	stack.releaseAll()
}

// initStep creates one or more handles and pushes their release
type initStep struct {
	name string
	fn   func() error
}

// runSteps runs steps in order. On the first failure everything
// created so far is released before the error is returned.
func runSteps(stack *releaseStack, steps ...initStep) error {
	for _, step := range steps {
		if err := step.fn(); err != nil {
			log.WithError(err).WithField("step", step.name).Error("initialisation failed, rolling back")
			stack.releaseAll()
			return err
		}
	}
	return nil
}
