// Command ctdemo demonstrates the corethread dispatch engine.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/gogpu/corethread"
	"github.com/gogpu/corethread/gpu"
	"github.com/gogpu/corethread/taskpool"
)

const clearShaderWGSL = `
@compute @workgroup_size(1)
fn main() {
}
`

func main() {
	var (
		producers = flag.Int("producers", 4, "number of producer goroutines")
		commands  = flag.Int("commands", 1000, "commands per producer")
		frames    = flag.Int("frames", 3, "frames to simulate")
		useGPU    = flag.Bool("gpu", false, "initialize a WebGPU device on the core thread")
		verbose   = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	corethread.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	pool := taskpool.New(0)
	defer pool.Close()

	ct, err := corethread.New(corethread.WithScheduler(pool))
	if err != nil {
		log.Fatalf("Failed to start core thread: %v", err)
	}
	defer ct.Stop()

	if *useGPU {
		runGPU(ct)
	}

	// Producers batch commands through per-goroutine accessors; a shared
	// counter mutated only on the core thread needs no lock.
	executed := 0
	var wg sync.WaitGroup
	for p := 0; p < *producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := ct.Accessor()
			for i := 0; i < *commands; i++ {
				a.Queue(func() { executed++ })
				if a.Pending() >= 64 {
					if err := a.Submit(false); err != nil {
						log.Fatalf("Submit failed: %v", err)
					}
				}
			}
			if err := a.Submit(true); err != nil {
				log.Fatalf("Submit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Frame loop: allocate transient data from the active arena, then
	// swap at the frame boundary.
	for f := 0; f < *frames; f++ {
		buf := ct.FrameAlloc().Alloc(4096)
		if err := ct.Submit(func() {
			b := buf.Bytes()
			for i := range b {
				b[i] = byte(f)
			}
		}, true); err != nil {
			log.Fatalf("Frame command failed: %v", err)
		}
		ct.AdvanceFrame()
	}

	// executed is read after a blocking submit, so the value is final.
	var total int
	if err := ct.Submit(func() { total = executed }, true); err != nil {
		log.Fatalf("Submit failed: %v", err)
	}

	log.Printf("Executed %d commands from %d producers over %d frames", total, *producers, *frames)
}

// runGPU brings up a WebGPU device on the core thread and compiles a
// trivial shader through it.
func runGPU(ct *corethread.CoreThread) {
	gctx, err := gpu.NewContext(ct)
	if err != nil {
		log.Printf("GPU unavailable: %v", err)
		return
	}
	defer gctx.Close()

	if info := gctx.Info(); info != nil {
		log.Printf("GPU: %s", info)
	}
	if err := gctx.CheckLimits(); err != nil {
		log.Printf("CheckLimits: %v", err)
	}
	if _, err := gctx.CompileShader("clear", clearShaderWGSL); err != nil {
		log.Printf("Shader compilation: %v", err)
	}
}
