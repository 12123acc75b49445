package loaders

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// LoadScene reads a JSON scene description. Unknown fields are rejected so
// typos do not silently fall back to defaults.
func LoadScene(filename string) (*scene.Description, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()

	var desc scene.Description
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("failed to parse scene %s: %w", filename, err)
	}
	if len(desc.Cameras) == 0 {
		return nil, fmt.Errorf("scene %s defines no cameras", filename)
	}
	return &desc, nil
}
