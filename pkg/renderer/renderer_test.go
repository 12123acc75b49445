package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/effects"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// sphereScene is a matte unit sphere at the origin lit from above
func sphereScene() *scene.Description {
	return &scene.Description{
		Spectra:   map[string][]string{"grey": {"#000000", "#FFFFFF"}},
		Materials: map[string]scene.MaterialDescription{"matte": {Kind: "diffuse", Spectrum: "grey"}},
		Entities: []scene.EntityDescription{
			{Sphere: &scene.SphereDescription{Radius: 1}, Material: "matte"},
		},
		Lights: []scene.LightDescription{{Position: [3]float64{0, -5, 5}, Intensity: 1}},
	}
}

// wallScene is a matte wall at z=-10 seen from the origin, optionally with a
// clear sphere of refractive index 1 in front of it
func wallScene(withSphere bool) *scene.Description {
	desc := &scene.Description{
		Spectra: map[string][]string{"grey": {"#000000", "#FFFFFF"}},
		Meshes: map[string]scene.MeshDescription{"wall": {
			Positions: [][3]float64{{-20, -20, 0}, {20, -20, 0}, {20, 20, 0}, {-20, 20, 0}},
			Faces:     [][3]int{{0, 1, 2}, {0, 2, 3}},
		}},
		Materials: map[string]scene.MaterialDescription{
			"matte": {Kind: "diffuse", Spectrum: "grey"},
			"clear": {Kind: "refractive", Spectrum: "grey", RefractiveIndex: 1},
		},
		Entities: []scene.EntityDescription{
			{Mesh: "wall", Material: "matte", Translation: [3]float64{0, 0, -10}},
		},
		Lights: []scene.LightDescription{{Position: [3]float64{0, 5, 5}, Intensity: 1}},
	}
	if withSphere {
		desc.Entities = append(desc.Entities, scene.EntityDescription{
			Sphere:   &scene.SphereDescription{Center: [3]float64{0, 0, -5}, Radius: 1.5},
			Material: "clear",
		})
	}
	return desc
}

func buildScene(t *testing.T, desc *scene.Description, loops int) *scene.Scene {
	t.Helper()
	settings := core.DefaultRenderSettings()
	settings.MaxLoops = loops
	s, err := scene.Build(desc, settings)
	if err != nil {
		t.Fatalf("Failed to build scene: %v", err)
	}
	return s
}

func newCamera(t *testing.T, desc scene.CameraDescription) *Camera {
	t.Helper()
	cam, err := NewCamera(desc)
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}
	return cam
}

func testConfig(checkpoints *Checkpoints) WorkerConfig {
	return WorkerConfig{NumWorkers: 3, Checkpoints: checkpoints, Logger: core.NopLogger{}}
}

func maxDifference(a, b *effects.Buffer) float64 {
	worst := 0.0
	for i := range a.Pixels {
		p, q := a.Pixels[i], b.Pixels[i]
		worst = math.Max(worst, math.Max(math.Max(math.Abs(p.R-q.R), math.Abs(p.G-q.G)),
			math.Max(math.Abs(p.B-q.B), math.Abs(p.A-q.A))))
	}
	return worst
}

func TestRender_DiffuseSphere(t *testing.T) {
	s := buildScene(t, sphereScene(), 1)
	desc := testCameraDescription()
	desc.SuperSamples = 2
	cam := newCamera(t, desc)

	frame, err := NewRenderer(s, testConfig(nil)).Render(context.Background(), cam)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if frame.Buffer.Width != 16 || frame.Buffer.Height != 12 {
		t.Fatalf("Expected a 16x12 frame, got %dx%d", frame.Buffer.Width, frame.Buffer.Height)
	}
	if centre := frame.Buffer.At(8, 6); centre.A != 1 || centre.R <= 0 {
		t.Errorf("Expected a lit opaque sphere at the centre, got %v", centre)
	}
	if corner := frame.Buffer.At(0, 0); corner.A != 0 {
		t.Errorf("Expected a transparent corner, got %v", corner)
	}

	if frame.Stats.RenderedTiles != 6 || frame.Stats.ResumedTiles != 0 {
		t.Errorf("Expected 6 rendered tiles, got %+v", frame.Stats)
	}
	if frame.Stats.PrimarySamples != 16*12*4 {
		t.Errorf("Expected %d primary samples, got %d", 16*12*4, frame.Stats.PrimarySamples)
	}
	if frame.Stats.ShadedVertices < frame.Stats.PrimarySamples {
		t.Errorf("Expected at least one shaded vertex per sample, got %d", frame.Stats.ShadedVertices)
	}

	img := frame.Image()
	if img.Bounds().Dx() != 16 || img.NRGBA64At(0, 0).A != 0 {
		t.Errorf("Expected the image to match the buffer")
	}
}

func TestRender_IndexOneSphereIsInvisible(t *testing.T) {
	desc := scene.CameraDescription{
		Name:         "wall",
		Eye:          [3]float64{0, 0, 0},
		LookAt:       [3]float64{0, 0, -1},
		FieldOfView:  60,
		Resolution:   [2]int{12, 12},
		NumTiles:     [2]int{2, 2},
		SuperSamples: 2,
	}

	render := func(withSphere bool) *Frame {
		s := buildScene(t, wallScene(withSphere), 1)
		frame, err := NewRenderer(s, testConfig(nil)).Render(context.Background(), newCamera(t, desc))
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		return frame
	}

	plain, glass := render(false), render(true)
	if diff := maxDifference(plain.Buffer, glass.Buffer); diff > 1e-3 {
		t.Errorf("Expected a clear index-1 sphere to be invisible, max difference %v", diff)
	}
	if plain.Buffer.At(6, 6).A != 1 {
		t.Errorf("Expected the wall to fill the frame")
	}
}

func TestRender_ResumeFromCheckpoints(t *testing.T) {
	s := buildScene(t, sphereScene(), 2)
	cam := newCamera(t, testCameraDescription())
	checkpoints := NewCheckpoints(t.TempDir())
	tiles := Partition(cam.Width, cam.Height, cam.NumTiles[0], cam.NumTiles[1])

	first, err := NewRenderer(s, testConfig(checkpoints)).Render(context.Background(), cam)
	if err != nil {
		t.Fatalf("First render failed: %v", err)
	}

	files := map[string][]byte{}
	for loop := 0; loop < 2; loop++ {
		for _, tile := range tiles {
			path := checkpoints.Path(cam.Name, loop, tile.X, tile.Y)
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Missing checkpoint %s: %v", path, err)
			}
			files[path] = data
		}
	}

	if err := os.Remove(checkpoints.Path(cam.Name, 0, 0, 0)); err != nil {
		t.Fatalf("Failed to remove checkpoint: %v", err)
	}

	var mu sync.Mutex
	var results []TileResult
	config := testConfig(checkpoints)
	config.OnTile = func(r TileResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}

	second, err := NewRenderer(s, config).Render(context.Background(), cam)
	if err != nil {
		t.Fatalf("Second render failed: %v", err)
	}

	if len(results) != 2*len(tiles) {
		t.Fatalf("Expected %d tile results, got %d", 2*len(tiles), len(results))
	}
	rendered := 0
	for i, r := range results {
		if i > 0 && r.Loop < results[i-1].Loop {
			t.Errorf("Tile results went back from loop %d to %d", results[i-1].Loop, r.Loop)
		}
		if !r.Resumed {
			rendered++
			if r.X != 0 || r.Y != 0 || r.Loop != 0 {
				t.Errorf("Expected only tile (0,0) of loop 0 to be rendered, got (%d,%d) loop %d", r.X, r.Y, r.Loop)
			}
		}
	}
	if rendered != 1 {
		t.Errorf("Expected exactly one rendered tile, got %d", rendered)
	}

	for path, data := range files {
		now, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Missing checkpoint after resume %s: %v", path, err)
		}
		if !bytes.Equal(now, data) {
			t.Errorf("Checkpoint %s changed after resume", path)
		}
	}

	if diff := maxDifference(first.Buffer, second.Buffer); diff != 0 {
		t.Errorf("Expected identical frames after resume, max difference %v", diff)
	}

	progress := checkpoints.Progress(cam, 2)
	if progress[0] != len(tiles) || progress[1] != len(tiles) {
		t.Errorf("Expected every tile checkpointed, got %v", progress)
	}
}

func TestAccumulate_RunningMean(t *testing.T) {
	mean := effects.NewBuffer(2, 1)
	values := []float64{0.2, 0.6, 1.0}

	for loop, v := range values {
		accumulate(mean, TileResult{
			Bounds: image.Rect(0, 0, 2, 1),
			Pixels: []core.Colour{core.NewColour(v, v, v, 1), core.NewColour(0, 0, 0, 0)},
		}, loop)
	}

	if got := mean.At(0, 0); math.Abs(got.R-0.6) > 1e-12 || got.A != 1 {
		t.Errorf("Expected the mean of three loops to be 0.6, got %v", got)
	}
	if got := mean.At(1, 0); got != (core.Colour{}) {
		t.Errorf("Expected transparent pixels to stay transparent, got %v", got)
	}
}

func TestRender_MultipleLoops(t *testing.T) {
	cam := newCamera(t, testCameraDescription())
	frame, err := NewRenderer(buildScene(t, sphereScene(), 3), testConfig(nil)).Render(context.Background(), cam)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if frame.Stats.Loops != 3 || frame.Stats.RenderedTiles != 3*cam.TileCount() {
		t.Errorf("Expected 3 loops over %d tiles, got %+v", cam.TileCount(), frame.Stats)
	}
	if c := frame.Buffer.At(8, 6); c.A != 1 {
		t.Errorf("Expected an opaque centre after averaging, got %v", c)
	}
}

func TestRender_Cancelled(t *testing.T) {
	s := buildScene(t, sphereScene(), 1)
	cam := newCamera(t, testCameraDescription())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRenderer(s, testConfig(nil)).Render(ctx, cam)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected a cancellation error, got %v", err)
	}
}

func TestRender_AmbientOutline(t *testing.T) {
	desc := testCameraDescription()
	desc.Engine = scene.EngineDescription{Kind: "ambient", Samples: 16, Effects: []string{"outline"}}
	cam := newCamera(t, desc)

	frame, err := NewRenderer(buildScene(t, sphereScene(), 1), testConfig(nil)).Render(context.Background(), cam)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// The outline pass replaces the picture with a mask of the silhouette
	if c := frame.Buffer.At(8, 6); c.A != 0 {
		t.Errorf("Expected the sphere interior to be unmarked, got %v", c)
	}
	if c := frame.Buffer.At(0, 0); c.A != 0 {
		t.Errorf("Expected the empty corner to be unmarked, got %v", c)
	}
	marked := 0
	for _, p := range frame.Buffer.Pixels {
		if p.A == 1 {
			marked++
		}
	}
	if marked == 0 {
		t.Error("Expected the silhouette to be outlined")
	}
}
