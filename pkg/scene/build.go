package scene

import (
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/geometry"
	"github.com/df07/go-tile-raytracer/pkg/material"
	"github.com/df07/go-tile-raytracer/pkg/spectrum"
)

// Build resolves a scene description into a render-ready Scene. Unknown
// spectrum, mesh or material identifiers are reported as *core.ReferenceError
// before any BVH is built. Mesh BVHs are built concurrently, then the scene BVH.
func Build(desc *Description, settings core.RenderSettings) (*Scene, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render settings: %w", err)
	}
	if err := CheckReferences(desc); err != nil {
		return nil, err
	}

	spectra := make(map[string]*spectrum.Spectrum, len(desc.Spectra))
	for _, name := range sortedKeys(desc.Spectra) {
		s, err := spectrum.Parse(desc.Spectra[name])
		if err != nil {
			return nil, fmt.Errorf("spectrum %q: %w", name, err)
		}
		spectra[name] = s
	}

	materials := make(map[string]*material.Material, len(desc.Materials))
	for _, name := range sortedKeys(desc.Materials) {
		m, err := buildMaterial(desc.Materials[name], spectra)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		m.Name = name
		materials[name] = m
	}

	lights := make([]Light, len(desc.Lights))
	for i, l := range desc.Lights {
		colour := core.NewColour(1, 1, 1, 1)
		if l.Colour != "" {
			rgba, err := spectrum.ParseHex(l.Colour)
			if err != nil {
				return nil, fmt.Errorf("light %d: %w", i, err)
			}
			colour = core.ColourFromRGBA(rgba)
		}
		lights[i] = Light{Position: Vec(l.Position), Intensity: l.Intensity, Colour: colour}
	}

	// Only meshes that some entity instances end up in the arena
	meshIndex := make(map[string]int)
	var meshNames []string
	for _, e := range desc.Entities {
		if e.Sphere != nil {
			continue
		}
		if _, ok := meshIndex[e.Mesh]; !ok {
			meshIndex[e.Mesh] = len(meshNames)
			meshNames = append(meshNames, e.Mesh)
		}
	}

	meshes := make([]*geometry.Mesh, len(meshNames))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, name := range meshNames {
		i, name := i, name
		g.Go(func() error {
			triangles, err := buildTriangles(desc.Meshes[name])
			if err != nil {
				return fmt.Errorf("mesh %q: %w", name, err)
			}
			meshes[i] = geometry.NewMesh(name, triangles, settings.MeshBVHMaxChildren, settings.MeshBVHMaxDepth)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entities := make([]Entity, len(desc.Entities))
	bounds := make([]core.AABB, len(desc.Entities))
	centroids := make([]core.Vec3, len(desc.Entities))
	for i, e := range desc.Entities {
		scale := e.Scale
		if scale == 0 {
			scale = 1
		}
		if scale < 0 {
			return nil, fmt.Errorf("entity %d: scale must be positive, got %v", i, scale)
		}

		entity := Entity{
			Mesh:      -1,
			Material:  materials[e.Material],
			Transform: geometry.NewTransform(Vec(e.Translation), Vec(e.Rotation), scale),
		}
		if e.Sphere != nil {
			if e.Sphere.Radius <= 0 {
				return nil, fmt.Errorf("entity %d: sphere radius must be positive, got %v", i, e.Sphere.Radius)
			}
			local := geometry.NewSphere(Vec(e.Sphere.Center), e.Sphere.Radius)
			entity.Sphere = entity.Transform.SphereToWorld(local)
			entity.Bounds = entity.Sphere.Bounds()
		} else {
			entity.Mesh = meshIndex[e.Mesh]
			entity.Bounds = entity.Transform.BoundsToWorld(meshes[entity.Mesh].Bounds())
		}

		entities[i] = entity
		bounds[i] = entity.Bounds
		centroids[i] = entity.Bounds.Center()
	}

	return &Scene{
		Meshes:   meshes,
		Entities: entities,
		Lights:   lights,
		BVH:      geometry.BuildBVH(bounds, centroids, settings.SceneBVHMaxChildren, settings.SceneBVHMaxDepth),
		Settings: settings,
	}, nil
}

// CheckReferences verifies that every identifier in the description names
// something that exists
func CheckReferences(desc *Description) error {
	for _, name := range sortedKeys(desc.Materials) {
		m := desc.Materials[name]
		if _, ok := desc.Spectra[m.Spectrum]; !ok {
			return &core.ReferenceError{Kind: "spectrum", ID: m.Spectrum, Owner: fmt.Sprintf("material %q", name)}
		}
	}

	for i, e := range desc.Entities {
		owner := fmt.Sprintf("entity %d", i)
		if e.Sphere == nil {
			if _, ok := desc.Meshes[e.Mesh]; !ok {
				return &core.ReferenceError{Kind: "mesh", ID: e.Mesh, Owner: owner}
			}
		} else if e.Mesh != "" {
			return fmt.Errorf("%s: has both a mesh and a sphere", owner)
		}
		if _, ok := desc.Materials[e.Material]; !ok {
			return &core.ReferenceError{Kind: "material", ID: e.Material, Owner: owner}
		}
	}
	return nil
}

func buildMaterial(desc MaterialDescription, spectra map[string]*spectrum.Spectrum) (*material.Material, error) {
	kind, err := material.ParseKind(desc.Kind)
	if err != nil {
		return nil, err
	}
	s := spectra[desc.Spectrum]

	switch kind {
	case material.Diffuse:
		return material.NewDiffuse(s), nil
	case material.Reflective:
		return material.NewReflective(s, desc.Absorption), nil
	case material.Refractive:
		index := desc.RefractiveIndex
		if index == 0 {
			index = 1
		}
		if index < 1 {
			return nil, fmt.Errorf("refractive index must be at least 1, got %v", index)
		}
		return material.NewRefractive(s, desc.Absorption, index), nil
	}
	return nil, fmt.Errorf("unsupported material kind %v", kind)
}

func buildTriangles(desc MeshDescription) ([]geometry.Triangle, error) {
	if len(desc.Normals) != 0 && len(desc.Normals) != len(desc.Positions) {
		return nil, fmt.Errorf("%d normals for %d positions", len(desc.Normals), len(desc.Positions))
	}

	triangles := make([]geometry.Triangle, len(desc.Faces))
	for i, face := range desc.Faces {
		var vertices, normals [3]core.Vec3
		for j, index := range face {
			if index < 0 || index >= len(desc.Positions) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range", i, index)
			}
			vertices[j] = Vec(desc.Positions[index])
			if len(desc.Normals) != 0 {
				normals[j] = Vec(desc.Normals[index]).Normalize()
			}
		}

		if len(desc.Normals) == 0 {
			triangles[i] = geometry.NewTriangle(vertices[0], vertices[1], vertices[2])
		} else {
			triangles[i] = geometry.NewTriangleWithNormals(vertices, normals)
		}
	}
	return triangles, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
