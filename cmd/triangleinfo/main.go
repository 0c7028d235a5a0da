// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/devblok/triangle/core"
	"github.com/devblok/triangle/device"
	log "github.com/sirupsen/logrus"
)

var debug = flag.Bool("vkdbg", false, "Load Vulkan validation layers")

func main() {
	flag.Parse()

	cfg := core.DefaultConfiguration().Instance
	cfg.ApplicationName = "Vulkan Triangle info"
	cfg.DebugMode = *debug

	instance, err := core.NewVulkanInstance(nil, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer instance.Destroy()

	infos := make([]device.Info, 0, len(instance.AvailableDevices()))
	for _, pd := range instance.AvailableDevices() {
		infos = append(infos, device.Describe(pd))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(infos); err != nil {
		log.Fatal(err)
	}
}
