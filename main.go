package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/loaders"
	"github.com/df07/go-tile-raytracer/pkg/renderer"
	"github.com/df07/go-tile-raytracer/pkg/scene"
	"github.com/df07/go-tile-raytracer/web/server"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	sceneFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "settings, s",
			Usage: "JSON render settings file (defaults are used when omitted)",
		},
		cli.StringFlag{
			Name:  "output, o",
			Usage: "checkpoint and image directory, overriding the settings file",
		},
		cli.StringFlag{
			Name:  "camera, c",
			Usage: "only process the named camera",
		},
	}

	app := cli.NewApp()
	app.Name = "tiletracer"
	app.Usage = "render JSON scenes tile by tile with resumable checkpoints"
	app.Version = "0.1.0"
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render every camera of a scene",
			Description: `
Render each camera of the scene for max_loops loops. Finished tiles are written
to <output>/<camera>/loop_NNN/ so an interrupted render resumes where it stopped.
The averaged frame is saved as <output>/<camera>.png.`,
			ArgsUsage: "scene.json",
			Flags: append(sceneFlags,
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "number of render workers (0 uses every logical core)",
				},
				cli.BoolFlag{
					Name:  "no-checkpoints",
					Usage: "neither read nor write tile checkpoints",
				},
				cli.BoolFlag{
					Name:  "quiet, q",
					Usage: "suppress progress output",
				},
			),
			Action: renderScene,
		},
		{
			Name:      "serve",
			Usage:     "serve the scene over HTTP, streaming tiles as they finish",
			ArgsUsage: "scene.json",
			Flags: append(sceneFlags,
				cli.IntFlag{
					Name:  "port, p",
					Value: 8080,
					Usage: "port to listen on",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "number of render workers (0 uses every logical core)",
				},
			),
			Action: serveScene,
		},
		{
			Name:      "status",
			Usage:     "report checkpoint progress for every camera of a scene",
			ArgsUsage: "scene.json",
			Flags:     sceneFlags,
			Action:    sceneStatus,
		},
	}
	return app
}

// loadScene reads the scene and settings named on the command line and
// returns the cameras selected for processing
func loadScene(c *cli.Context) (*scene.Description, core.RenderSettings, []*renderer.Camera, error) {
	settings := core.DefaultRenderSettings()
	if c.NArg() != 1 {
		return nil, settings, nil, fmt.Errorf("expected exactly one scene file, got %d arguments", c.NArg())
	}

	if path := c.String("settings"); path != "" {
		var err error
		if settings, err = core.LoadRenderSettings(path); err != nil {
			return nil, settings, nil, err
		}
	}
	if output := c.String("output"); output != "" {
		settings.OutputDirectory = output
	}

	desc, err := loaders.LoadScene(c.Args().First())
	if err != nil {
		return nil, settings, nil, err
	}

	var cameras []*renderer.Camera
	for _, cd := range desc.Cameras {
		if name := c.String("camera"); name != "" && cd.Name != name {
			continue
		}
		cam, err := renderer.NewCamera(cd)
		if err != nil {
			return nil, settings, nil, err
		}
		cameras = append(cameras, cam)
	}
	if len(cameras) == 0 {
		return nil, settings, nil, fmt.Errorf("no camera named %q in %s", c.String("camera"), c.Args().First())
	}
	return desc, settings, cameras, nil
}

func renderScene(c *cli.Context) error {
	desc, settings, cameras, err := loadScene(c)
	if err != nil {
		return err
	}

	logger := core.NewDefaultLogger()
	if c.Bool("quiet") {
		logger = core.NopLogger{}
	}
	logSystemInfo(logger)

	start := time.Now()
	s, err := scene.Build(desc, settings)
	if err != nil {
		return err
	}
	stats := s.GetStats()
	logger.Printf("Scene built in %v: %d entities, %d meshes, %d triangles, %d lights (BVH %d nodes, depth %d)\n",
		time.Since(start), stats.Entities, stats.Meshes, stats.Triangles, stats.Lights,
		stats.SceneBVH.TotalNodes, stats.SceneBVH.MaxDepth)

	config := renderer.DefaultWorkerConfig()
	config.Logger = logger
	config.NumWorkers = c.Int("workers")
	if !c.Bool("no-checkpoints") {
		config.Checkpoints = renderer.NewCheckpoints(settings.OutputDirectory)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := renderer.NewRenderer(s, config)
	for _, cam := range cameras {
		frame, err := r.Render(ctx, cam)
		if err != nil {
			return err
		}

		filename := filepath.Join(settings.OutputDirectory, cam.Name+".png")
		if err := loaders.SavePNG(filename, frame.Image()); err != nil {
			return err
		}
		logger.Printf("Camera %s saved as %s (%d primary samples, %d shaded vertices)\n",
			cam.Name, filename, frame.Stats.PrimarySamples, frame.Stats.ShadedVertices)
	}
	return nil
}

func serveScene(c *cli.Context) error {
	desc, settings, cameras, err := loadScene(c)
	if err != nil {
		return err
	}

	logger := core.NewDefaultLogger()
	logSystemInfo(logger)

	s, err := scene.Build(desc, settings)
	if err != nil {
		return err
	}

	port := c.Int("port")
	logger.Printf("Visit http://localhost:%d/api/cameras to list cameras\n", port)
	srv := server.NewServer(port, s, cameras, renderer.NewCheckpoints(settings.OutputDirectory), c.Int("workers"))
	return srv.Start()
}

func sceneStatus(c *cli.Context) error {
	_, settings, cameras, err := loadScene(c)
	if err != nil {
		return err
	}

	checkpoints := renderer.NewCheckpoints(settings.OutputDirectory)
	for _, cam := range cameras {
		fmt.Fprintf(c.App.Writer, "%s (%dx%d, %d tiles, %s engine)\n",
			cam.Name, cam.Width, cam.Height, cam.TileCount(), cam.Engine.Kind)
		for loop, done := range checkpoints.Progress(cam, settings.MaxLoops) {
			fmt.Fprintf(c.App.Writer, "  loop %03d: %d/%d tiles\n", loop, done, cam.TileCount())
		}
	}
	return nil
}

func logSystemInfo(logger core.Logger) {
	if info, err := cpu.Info(); err == nil && len(info) > 0 {
		logger.Printf("CPU: %s, %d logical cores\n", info[0].ModelName, renderer.DefaultWorkerCount())
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		logger.Printf("Memory: %.1f GiB total, %.1f GiB available\n",
			float64(vm.Total)/(1<<30), float64(vm.Available)/(1<<30))
	}
}
