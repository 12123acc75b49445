package scene

import "github.com/df07/go-tile-raytracer/pkg/core"

// Description is a parsed scene as handed over by a loader. Identifiers link
// its parts together and are resolved by Build.
type Description struct {
	Spectra   map[string][]string            `json:"spectra"`   // Colour stops as "#RRGGBB[AA]"
	Meshes    map[string]MeshDescription     `json:"meshes"`    // Triangle soups by name
	Materials map[string]MaterialDescription `json:"materials"` // Materials by name
	Entities  []EntityDescription            `json:"entities"`
	Lights    []LightDescription             `json:"lights"`
	Cameras   []CameraDescription            `json:"cameras"`
}

// MeshDescription is an indexed triangle list. Normals are optional; when
// present there must be one per position.
type MeshDescription struct {
	Positions [][3]float64 `json:"positions"`
	Normals   [][3]float64 `json:"normals,omitempty"`
	Faces     [][3]int     `json:"faces"`
}

// MaterialDescription names a material kind and its spectrum
type MaterialDescription struct {
	Kind            string  `json:"kind"` // diffuse, reflective or refractive
	Spectrum        string  `json:"spectrum"`
	Absorption      float64 `json:"absorption,omitempty"`
	RefractiveIndex float64 `json:"refractive_index,omitempty"`
}

// SphereDescription is a sphere in entity-local space
type SphereDescription struct {
	Center [3]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// EntityDescription places a mesh or a sphere in the world. Scale defaults to 1.
type EntityDescription struct {
	Mesh        string             `json:"mesh,omitempty"`
	Sphere      *SphereDescription `json:"sphere,omitempty"`
	Material    string             `json:"material"`
	Translation [3]float64         `json:"translation,omitempty"`
	Rotation    [3]float64         `json:"rotation,omitempty"` // Degrees about X, Y, Z
	Scale       float64            `json:"scale,omitempty"`
}

// LightDescription is a point light. An empty colour means white.
type LightDescription struct {
	Position  [3]float64 `json:"position"`
	Intensity float64    `json:"intensity"`
	Colour    string     `json:"colour,omitempty"`
}

// EngineDescription selects a camera engine and its parameters. Fields that
// do not apply to the chosen kind are ignored.
type EngineDescription struct {
	Kind        string     `json:"kind"` // full, test, ambient, reflective, xray, distance, normal
	BounceCap   int        `json:"bounce_cap,omitempty"`
	Probe       [3]float64 `json:"probe,omitempty"`
	MaxDistance float64    `json:"max_distance,omitempty"`
	Effects     []string   `json:"effects,omitempty"`
	Samples     int        `json:"samples,omitempty"`
	Normaliser  float64    `json:"normaliser,omitempty"`
}

// CameraDescription describes one output image
type CameraDescription struct {
	Name         string            `json:"name"`
	Eye          [3]float64        `json:"eye"`
	LookAt       [3]float64        `json:"look_at"`
	FieldOfView  float64           `json:"fov"` // Horizontal, degrees
	Resolution   [2]int            `json:"resolution"`
	NumTiles     [2]int            `json:"num_tiles"`
	SuperSamples int               `json:"super_samples"`
	Engine       EngineDescription `json:"engine"`
}

// Vec converts a JSON triple into a vector
func Vec(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
