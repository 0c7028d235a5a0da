// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"sync/atomic"
	"time"

	"github.com/devblok/triangle/core"
	"github.com/devblok/triangle/window"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var frameCounter int64

var (
	configPath    = flag.String("config", "", "Path to a toml configuration file")
	windowBackend = flag.String("window", window.BackendSDL, "Window backend, sdl or glfw")
	debug         = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	showFps       = flag.Bool("fps", false, "Print the frame rate")
)

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

func main() {
	os.Exit(realMain())
}

// realMain returns the exit status, deferred cleanups run before it
func realMain() int {
	flag.Parse()

	configuration, err := core.LoadConfiguration(*configPath)
	if err != nil {
		log.Error(err)
		return 1
	}
	if *debug {
		configuration.Instance.DebugMode = true
		configuration.LogLevel = "debug"
	}
	level, err := log.ParseLevel(configuration.LogLevel)
	if err != nil {
		log.Error(err)
		return 1
	}
	log.SetLevel(level)

	stopProfiling, err := startProfiling(*cpuProfile, *traceProfile)
	if err != nil {
		log.Error(err)
		return 1
	}
	defer stopProfiling()

	if err := run(configuration); err != nil {
		log.Error(err)
		return 1
	}

	if *memProfile != "" {
		if err := writeHeapProfile(*memProfile); err != nil {
			log.Error(err)
			return 1
		}
	}
	return 0
}

// startProfiling starts the CPU profile and the execution trace when
// their paths are set. stop flushes and closes both files.
func startProfiling(cpuPath, tracePath string) (stop func(), err error) {
	var stops []func()
	stop = func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if cpuPath != "" {
		f, err := os.Create(cpuPath)
		if err != nil {
			return stop, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return stop, err
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			stop()
			return func() {}, err
		}
		if err := trace.Start(f); err != nil {
			f.Close()
			stop()
			return func() {}, err
		}
		stops = append(stops, func() {
			trace.Stop()
			f.Close()
		})
	}
	return stop, nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}

func run(configuration core.Configuration) error {
	win, err := window.New(*windowBackend,
		configuration.Instance.ApplicationName,
		configuration.Renderer.ScreenWidth,
		configuration.Renderer.ScreenHeight)
	if err != nil {
		return err
	}
	defer win.Destroy()

	vkContext, err := core.NewContext(win, configuration)
	if err != nil {
		return err
	}
	defer vkContext.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	programSync := sync.WaitGroup{}

	/* Frame counter loop */
	if *showFps {
		programSync.Add(1)
		go func(ctx context.Context, wg *sync.WaitGroup) {
			defer wg.Done()
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					fmt.Println()
					return
				case <-ticker.C:
					// 200 ms * 5 = 1s
					currentCount := atomic.SwapInt64(&frameCounter, 0)
					fmt.Printf("\r\033[2KFrame count: %d\tCGO calls: %d", currentCount*5, runtime.NumCgoCall())
				}
			}
		}(ctx, &programSync)
	}

	/* Draw and event loop, both on the locked main thread */
	timeService := vkContext.Time()
	var drawErr error
MainLoop:
	for {
		select {
		case <-timeService.EventTicker().C:
			if !win.PollEvents() {
				break MainLoop
			}
		case <-timeService.FpsTicker().C:
			if drawErr = vkContext.DrawFrame(); drawErr != nil {
				break MainLoop
			}
			atomic.AddInt64(&frameCounter, 1)
		}
	}

	cancel()
	programSync.Wait()
	log.Info("main loop exited")
	return drawErr
}
