// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shaders holds the GLSL sources of the triangle.
// SPIR-V is produced with glslangValidator and is not checked in.
package shaders

//go:generate glslangValidator -V triangle.vert -o vertex.spv
//go:generate glslangValidator -V triangle.frag -o fragment.spv
//go:generate go run ../cmd/kar -f ../shaders.kar -force vertex.spv fragment.spv
