package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/effects"
	"github.com/df07/go-tile-raytracer/pkg/scene"
	"github.com/df07/go-tile-raytracer/pkg/spectrum"
)

// EngineKind selects how a camera turns a primary ray into a colour
type EngineKind int

const (
	Full EngineKind = iota
	Test
	Ambient
	Reflective
	Xray
	Distance
	Normal
)

var engineNames = map[EngineKind]string{
	Full:       "full",
	Test:       "test",
	Ambient:    "ambient",
	Reflective: "reflective",
	Xray:       "xray",
	Distance:   "distance",
	Normal:     "normal",
}

func (k EngineKind) String() string {
	if name, ok := engineNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EngineKind(%d)", int(k))
}

// DefaultAmbientSamples is the hemisphere sample count used when none is given
const DefaultAmbientSamples = 101

// maxXrayCrossings bounds the number of surfaces an x-ray counts
const maxXrayCrossings = 1000

// Engine is a camera engine and its parameters. Only the fields belonging to
// Kind are used.
type Engine struct {
	Kind        EngineKind
	BounceCap   int              // Full: lowers the recursion cap when positive
	Probe       core.Vec3        // Test, Reflective: light/viewpoint position
	MaxDistance float64          // Reflective: furthest reflected hit considered
	Effects     []effects.Effect // Ambient: applied to the finished image
	Samples     int              // Ambient: hemisphere samples per hit
	Normaliser  float64          // Distance: distance mapped to white
}

// NewEngine converts a scene file engine description
func NewEngine(desc scene.EngineDescription) (Engine, error) {
	kind := EngineKind(-1)
	for k, name := range engineNames {
		if name == desc.Kind {
			kind = k
		}
	}
	if kind < 0 {
		if desc.Kind == "" {
			kind = Full
		} else {
			return Engine{}, fmt.Errorf("unknown engine %q", desc.Kind)
		}
	}

	engine := Engine{
		Kind:        kind,
		BounceCap:   desc.BounceCap,
		Probe:       scene.Vec(desc.Probe),
		MaxDistance: desc.MaxDistance,
		Samples:     desc.Samples,
		Normaliser:  desc.Normaliser,
	}

	for _, name := range desc.Effects {
		effect, err := effects.ParseEffect(name)
		if err != nil {
			return Engine{}, err
		}
		engine.Effects = append(engine.Effects, effect)
	}

	if engine.Samples <= 0 {
		engine.Samples = DefaultAmbientSamples
	}
	if engine.Normaliser <= 0 {
		engine.Normaliser = 10
	}
	if kind == Reflective && !(engine.MaxDistance > 0) {
		return Engine{}, fmt.Errorf("reflective engine needs a positive max_distance, got %v", desc.MaxDistance)
	}
	if engine.BounceCap < 0 {
		return Engine{}, fmt.Errorf("bounce_cap must not be negative, got %d", engine.BounceCap)
	}
	return engine, nil
}

// Jitters reports whether sub-pixel samples should be randomly placed
func (e Engine) Jitters() bool {
	return e.Kind == Full
}

// PostEffects returns the effects to apply to the finished image
func (e Engine) PostEffects() []effects.Effect {
	if e.Kind != Ambient {
		return nil
	}
	return e.Effects
}

// Evaluator computes pixel colours for one engine over one scene. It holds no
// mutable state and may be shared between workers.
type Evaluator struct {
	engine Engine
	scene  *scene.Scene
	shader *Shader
	xray   *spectrum.Spectrum
}

// NewEvaluator prepares an engine for a scene
func NewEvaluator(engine Engine, s *scene.Scene) *Evaluator {
	shader := NewShader(s)
	if engine.Kind == Full && engine.BounceCap > 0 && engine.BounceCap < shader.MaxRecursions {
		shader.MaxRecursions = engine.BounceCap
	}

	xray, _ := spectrum.FromHex(0x0000FFFF, 0xFF0000FF)
	return &Evaluator{engine: engine, scene: s, shader: shader, xray: xray}
}

// Shader exposes the evaluator's shader so callers can attach an observer
func (ev *Evaluator) Shader() *Shader {
	return ev.shader
}

// Evaluate returns the colour for one primary ray
func (ev *Evaluator) Evaluate(ray core.Ray) core.Colour {
	switch ev.engine.Kind {
	case Full:
		return ev.shader.Shade(ray, 0, 1)
	case Test:
		return ev.test(ray)
	case Ambient:
		return ev.ambient(ray)
	case Reflective:
		return ev.reflective(ray)
	case Xray:
		return ev.xrayColour(ray)
	case Distance:
		return ev.distance(ray)
	case Normal:
		return ev.normal(ray)
	}
	return core.Transparent
}

// test lights the hit from the probe without shadows
func (ev *Evaluator) test(ray core.Ray) core.Colour {
	hit, ok := ev.scene.NearestHit(ray, 0, math.Inf(1))
	if !ok {
		return core.Transparent
	}
	toProbe := ev.engine.Probe.Subtract(hit.Position).Normalize()
	lightness := math.Max(0, hit.SmoothNormal.Multiply(hit.Side()).Dot(toProbe))
	return hit.Material.Spectrum.Sample(lightness)
}

// ambient blends a fixed lighting model from the first light with
// hemisphere occlusion
func (ev *Evaluator) ambient(ray core.Ray) core.Colour {
	hit, ok := ev.scene.NearestHit(ray, 0, math.Inf(1))
	if !ok {
		return core.Transparent
	}

	settings := ev.scene.Settings
	side := hit.Side()
	normal := hit.SmoothNormal.Multiply(side)
	flat := hit.Normal.Multiply(side)
	offset := hit.Position.Add(flat.Multiply(settings.SmoothingLength))

	diffuse, shadow := 0.0, 0.0
	if len(ev.scene.Lights) > 0 {
		toLight := ev.scene.Lights[0].Position.Subtract(hit.Position)
		distance := toLight.Length()
		direction := toLight.Normalize()
		diffuse = math.Max(0, normal.Dot(direction))
		shadow = Transmittance(ev.scene, offset, direction, distance, settings.MinWeight, settings.SmoothingLength)
	}

	level := math.Min(1, 0.1+0.2*diffuse+0.7*shadow)
	base := hit.Material.Spectrum.Sample(level)
	open := LocalOcclusion(ev.scene, offset, flat, ev.engine.Samples, settings.MinWeight, settings.SmoothingLength)
	return core.NewColour(0, 0, 0, 1).Lerp(base, open)
}

// reflective mirrors the probe's view of the hit and shades by how far away
// the reflected surface is
func (ev *Evaluator) reflective(ray core.Ray) core.Colour {
	hit, ok := ev.scene.NearestHit(ray, 0, math.Inf(1))
	if !ok {
		return core.Transparent
	}

	smoothing := ev.scene.Settings.SmoothingLength
	side := hit.Side()
	normal := hit.SmoothNormal.Multiply(side)
	offset := hit.Position.Add(hit.Normal.Multiply(side * smoothing))

	incoming := hit.Position.Subtract(ev.engine.Probe).Normalize()
	reflected := core.NewRay(offset, incoming.Reflect(normal))

	closeness := 0.0
	if second, ok := ev.scene.NearestHit(reflected, 0, ev.engine.MaxDistance); ok {
		closeness = 1 - second.Distance/ev.engine.MaxDistance
	}
	return hit.Material.Spectrum.Sample(closeness)
}

// xrayColour counts how many surfaces the ray passes through
func (ev *Evaluator) xrayColour(ray core.Ray) core.Colour {
	smoothing := ev.scene.Settings.SmoothingLength
	crossings := 0
	for crossings < maxXrayCrossings {
		hit, ok := ev.scene.NearestHit(ray, 0, math.Inf(1))
		if !ok {
			break
		}
		ray = ray.Travel(hit.Distance + smoothing/ray.Direction.Length())
		crossings++
	}

	if crossings == 0 {
		return core.Transparent
	}
	return ev.xray.Sample(float64(crossings) / 10)
}

func (ev *Evaluator) distance(ray core.Ray) core.Colour {
	x := 0.0
	if hit, ok := ev.scene.NearestHit(ray, 0, math.Inf(1)); ok {
		x = math.Max(0, math.Min(1, hit.Distance*ray.Direction.Length()/ev.engine.Normaliser))
	}
	return core.NewColour(x, x, x, 1)
}

func (ev *Evaluator) normal(ray core.Ray) core.Colour {
	hit, ok := ev.scene.NearestHit(ray, 0, math.Inf(1))
	if !ok {
		return core.NewColour(0, 0, 0, 1)
	}
	return core.NewColour(math.Abs(hit.Normal.X), math.Abs(hit.Normal.Y), math.Abs(hit.Normal.Z), 1)
}
