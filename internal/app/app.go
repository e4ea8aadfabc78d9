// Package app implements the terrain viewer's main loop.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/camera"
	"github.com/Faultbox/terrastream/internal/engine/heightfield"
	"github.com/Faultbox/terrastream/internal/engine/input"
	"github.com/Faultbox/terrastream/internal/engine/lighting"
	"github.com/Faultbox/terrastream/internal/engine/render"
	"github.com/Faultbox/terrastream/internal/engine/streaming"
	"github.com/Faultbox/terrastream/internal/engine/task"
	"github.com/Faultbox/terrastream/internal/engine/window"
	"github.com/Faultbox/terrastream/internal/logger"
)

// App owns the window, the renderer and the streaming scheduler.
type App struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *render.GL
	input    *input.Input
	camera   *camera.FlyCamera
	sun      lighting.Sun

	pool  *task.Pool
	sched *streaming.Scheduler

	captured bool
}

// New creates the application. The window must come first: the renderer and
// every other GL user need its context.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:    cfg,
		camera: camera.NewFlyCamera(),
		sun:    lighting.NewSun(235, 55),
		input:  input.New(),
	}

	var err error
	a.window, err = window.New(window.Config{
		Title:      "Terrastream",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	a.renderer, err = render.NewGL()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.pool = task.NewPool(cfg.Streaming.Workers)

	// Scaffold sampling reaches one ring past edge chunks, so the generator
	// bound gets a little slack beyond the streamable world.
	gen := heightfield.New(cfg.World.Seed, cfg.World.MaxWorldCoordinate+2*cfg.World.ChunkSize)

	root := a.renderer.CreateObject(render.Nil, mgl32.Ident4())
	a.sched = streaming.New(streaming.Config{
		ChunkSize:          cfg.World.ChunkSize,
		MaxWorldCoordinate: cfg.World.MaxWorldCoordinate,
		StridePerLOD:       cfg.World.StridePerLOD,
		DistancePerLOD:     cfg.World.DistancePerLOD,
		FinalizeBudget:     cfg.Streaming.FinalizeBudget,
		LodUpdatePeriod:    cfg.Streaming.LodUpdatePeriod,
	}, gen, a.pool, a.renderer, root, logger.Named("streaming"))

	a.setCaptured(true)

	slog.Info("application initialized",
		"seed", cfg.World.Seed,
		"chunk_size", cfg.World.ChunkSize,
		"lod_levels", len(cfg.World.StridePerLOD),
	)
	return a, nil
}

// Run starts the main loop.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	slog.Info("starting main loop")

	for a.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		for _, event := range a.input.Events() {
			switch event.Type {
			case input.EventWindowResize:
				a.renderer.Resize(event.Width, event.Height)
			case input.EventKeyDown:
				switch event.Key {
				case sdl.SCANCODE_ESCAPE:
					a.running = false
				case sdl.SCANCODE_F1:
					a.setCaptured(!a.captured)
				}
			}
		}
		a.updateCamera(dt)

		// 2. Stream terrain around the viewer. Budget 0 means the
		// configured per-frame budget.
		a.sched.Tick(a.camera.Position, 0)

		// 3. Render
		a.renderer.Begin()
		a.renderer.Draw(a.camera.ViewMatrix(), a.projection(), a.sun)

		// 4. Present
		a.window.SwapBuffers()

		a.capFrameRate(now)

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			slog.Debug("fps",
				"count", frameCount,
				"dt", fmt.Sprintf("%.2fms", float64(dt)*1000),
				"chunks", a.sched.Len(),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close cleans up application resources.
func (a *App) Close() {
	slog.Info("closing application")

	if a.sched != nil {
		a.sched.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

func (a *App) updateCamera(dt float32) {
	if a.captured {
		dx, dy := a.input.MouseDelta()
		a.camera.HandleLook(dx, dy)
	}

	forward := a.input.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W)
	right := a.input.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D)
	up := a.input.Axis(sdl.SCANCODE_LCTRL, sdl.SCANCODE_SPACE)
	sprint := a.input.IsKeyHeld(sdl.SCANCODE_LSHIFT)
	a.camera.HandleMovement(forward, right, up, sprint, dt)

	// Soft-clamp to the streamable world.
	bound := a.cfg.World.MaxWorldCoordinate - a.cfg.World.ChunkSize
	for axis := 0; axis < 3; axis += 2 {
		if a.camera.Position[axis] > bound {
			a.camera.Position[axis] = bound
		}
		if a.camera.Position[axis] < -bound {
			a.camera.Position[axis] = -bound
		}
	}
}

func (a *App) projection() mgl32.Mat4 {
	distances := a.cfg.World.DistancePerLOD
	far := distances[len(distances)-1] * 2
	return mgl32.Perspective(mgl32.DegToRad(60), a.window.AspectRatio(), 0.5, far)
}

func (a *App) setCaptured(captured bool) {
	a.captured = captured
	a.window.SetRelativeMouseMode(captured)
}

// capFrameRate sleeps off the remainder of the frame when an FPS limit is
// configured and VSync is not already pacing us.
func (a *App) capFrameRate(frameStart time.Time) {
	limit := a.cfg.Graphics.FPSLimit
	if limit <= 0 || a.cfg.Graphics.VSync {
		return
	}
	frame := time.Second / time.Duration(limit)
	if elapsed := time.Since(frameStart); elapsed < frame {
		time.Sleep(frame - elapsed)
	}
}
