package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/material"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Entity       int                    `json:"entity"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Inside       bool                   `json:"inside"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// extractMaterialInfo describes a material for the inspector
func extractMaterialInfo(mat *material.Material) (string, map[string]interface{}) {
	properties := map[string]interface{}{
		"name":       mat.Name,
		"absorption": mat.Absorption(),
		"colour":     hexColour(mat.Spectrum.Sample(1)),
	}
	if mat.Kind == material.Refractive {
		properties["refractiveIndex"] = mat.RefractiveIndex
	}
	return mat.Kind.String(), properties
}

// extractGeometryInfo describes the entity that was hit
func extractGeometryInfo(s *scene.Scene, index int) (string, map[string]interface{}) {
	entity := &s.Entities[index]
	properties := map[string]interface{}{
		"boundingBox": map[string]interface{}{
			"min": vecArray(entity.Bounds.Min),
			"max": vecArray(entity.Bounds.Max),
		},
	}

	if entity.IsSphere() {
		properties["center"] = vecArray(entity.Sphere.Center)
		properties["radius"] = entity.Sphere.Radius
		return "sphere", properties
	}

	mesh := s.Meshes[entity.Mesh]
	properties["mesh"] = mesh.Name
	properties["triangleCount"] = len(mesh.Triangles)
	return "mesh", properties
}

// handleInspect casts the centre ray of a pixel and describes what it hits
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	query := r.URL.Query()
	cam, err := s.lookupCamera(query)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	pixelX, err := parseIntParam(query, "x", -1, 0, cam.Width-1)
	if err != nil || pixelX < 0 {
		writeJSONError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := parseIntParam(query, "y", -1, 0, cam.Height-1)
	if err != nil || pixelY < 0 {
		writeJSONError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	hit, ok := s.scene.NearestHit(cam.Ray(pixelX, pixelY, 0.5, 0.5), 0, math.Inf(1))
	if !ok {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(InspectResponse{Hit: false, Entity: -1})
		return
	}

	materialType, materialProps := extractMaterialInfo(hit.Material)
	geometryType, geometryProps := extractGeometryInfo(s.scene, hit.Entity)

	response := InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Entity:       hit.Entity,
		Point:        vecArray(hit.Position),
		Normal:       vecArray(hit.Normal),
		Distance:     hit.Distance,
		Inside:       hit.Inside,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColour(c core.Colour) string {
	n := c.NRGBA64()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R>>8, n.G>>8, n.B>>8, n.A>>8)
}
