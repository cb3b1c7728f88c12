// Command farmapdemo exercises the FarMap pipeline end to end against a
// synthetic terrain source: it opens a window and GL context (so the
// texture baker and mesh uploader run against a real driver), then on every
// frame asks the fetch advisor what to request, feeds the answers through
// the decode and mesh-build tasks, and reports what the draw scheduler
// would submit. It is a development harness, not the game client itself —
// the near renderer and the final vertex-array bind-and-draw are out of
// scope here, per the teacher's cmd/mini-mc entry point it is modeled on.
package main

import (
	"log"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"

	"github.com/voxelfar/farmap/internal/atlas"
	"github.com/voxelfar/farmap/internal/atlasgpu"
	"github.com/voxelfar/farmap/internal/config"
	"github.com/voxelfar/farmap/internal/farmap"
	"github.com/voxelfar/farmap/internal/fetch"
	"github.com/voxelfar/farmap/internal/geom"
	"github.com/voxelfar/farmap/internal/netsrc"
	"github.com/voxelfar/farmap/internal/profiling"
	"github.com/voxelfar/farmap/internal/tasks"
	"github.com/voxelfar/farmap/internal/worker"

	farmapdraw "github.com/voxelfar/farmap/internal/draw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	logger := log.New(os.Stdout, "farmap: ", log.LstdFlags)

	if err := glfw.Init(); err != nil {
		logger.Fatalf("glfw init: %v", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		logger.Fatalf("window setup: %v", err)
	}
	if err := gl.Init(); err != nil {
		logger.Fatalf("gl init: %v", err)
	}

	settings := config.Default()
	settings.SetFarMapRange(300)

	defs := DefaultDefinitions()
	nodeAtlas := atlas.NewNodeAtlas(settings.AtlasNodeResolution())
	nodeAtlas.AddNode(contentStone, "stone.png", "stone.png", "stone.png", false)

	baker := atlasgpu.NewBaker(diskImageSource{Dir: "assets/textures"}, settings)
	baker.Logger = logger
	if _, err := baker.Bake(nodeAtlas.Registry()); err != nil {
		logger.Printf("texture bake failed, continuing with untextured meshes: %v", err)
	}

	w := worker.New(64)
	closer.Bind(w.Close)

	m := farmap.New()
	scheduler := &farmapdraw.Scheduler{
		Map:      m,
		Settings: settings,
		Worker:   w,
		Defs:     defs,
		Atlas:    nodeAtlas,
		Uploader: atlasgpu.GLMeshUploader{},
		Logger:   logger,
	}
	advisor := fetch.NewAdvisor(m, w, settings)
	source := netsrc.NewSyntheticSource(time.Now().UnixNano())
	profiler := profiling.New()

	closer.Bind(func() { logger.Printf("shutting down") })

	frame := 0
	lastReport := time.Now()
	for !window.ShouldClose() {
		glfw.PollEvents()
		profiler.ResetFrame()

		cameraFarBlockPos := geom.Vec3i{}
		func() {
			defer profiler.Track("fetch.Suggest")()
			for _, p := range advisor.Suggest(cameraFarBlockPos) {
				source.Request(p)
			}
		}()

		func() {
			defer profiler.Track("netsrc.Poll")()
			for {
				payload, ok := source.Poll()
				if !ok {
					break
				}
				w.Add(&tasks.DecodeTask{Map: m, Logger: logger, Payload: payload})
			}
		}()

		var calls []farmapdraw.DrawCall
		func() {
			defer profiler.Track("draw.Frame")()
			calls = scheduler.Frame(mgl32.Vec3{}, nil)
		}()

		gl.ClearColor(0.5, 0.7, 0.9, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		window.SwapBuffers()

		frame++
		if time.Since(lastReport) > time.Second {
			logger.Printf("frame %d: %d draw calls, %.2fms/frame profiled, queue %d/%d",
				frame, len(calls), profiler.Total().Seconds()*1000,
				w.QueueLength(), w.MaxQueueLength())
			lastReport = time.Now()
		}
	}

	closer.Close()
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(1024, 768, "farmapdemo", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	return window, nil
}
