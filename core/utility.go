// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strings"
	"unsafe"
)

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing. Trailing bytes
// that don't fill a word are dropped.
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return fmt.Sprintf("%s\x00", s)
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

// appendUnique appends names not yet present in list
func appendUnique(list []string, names ...string) []string {
	for _, n := range names {
		if !containsString(list, n) {
			list = append(list, n)
		}
	}
	return list
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSuffix(v, "\x00") == strings.TrimSuffix(s, "\x00") {
			return true
		}
	}
	return false
}
