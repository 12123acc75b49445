package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-tile-raytracer/pkg/renderer"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// Server streams renders of one built scene over HTTP
type Server struct {
	port        int
	scene       *scene.Scene
	cameras     map[string]*renderer.Camera
	order       []string
	checkpoints *renderer.Checkpoints
	numWorkers  int
}

// NewServer creates a web server for a scene and its cameras. Checkpoints
// may be nil, in which case every request renders from scratch.
func NewServer(port int, s *scene.Scene, cameras []*renderer.Camera, checkpoints *renderer.Checkpoints, numWorkers int) *Server {
	srv := &Server{
		port:        port,
		scene:       s,
		cameras:     make(map[string]*renderer.Camera, len(cameras)),
		checkpoints: checkpoints,
		numWorkers:  numWorkers,
	}
	for _, cam := range cameras {
		srv.cameras[cam.Name] = cam
		srv.order = append(srv.order, cam.Name)
	}
	return srv
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/cameras", s.handleCameras)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// CameraInfo describes a camera and its checkpoint progress
type CameraInfo struct {
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	TilesX     int    `json:"tilesX"`
	TilesY     int    `json:"tilesY"`
	Engine     string `json:"engine"`
	Loops      int    `json:"loops"`
	Checkpoint []int  `json:"checkpoint,omitempty"` // Finished tiles per loop
}

// handleCameras lists the scene's cameras
func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	loops := s.scene.Settings.MaxLoops
	infos := make([]CameraInfo, 0, len(s.order))
	for _, name := range s.order {
		cam := s.cameras[name]
		info := CameraInfo{
			Name:   cam.Name,
			Width:  cam.Width,
			Height: cam.Height,
			TilesX: cam.NumTiles[0],
			TilesY: cam.NumTiles[1],
			Engine: cam.Engine.Kind.String(),
			Loops:  loops,
		}
		if s.checkpoints != nil {
			info.Checkpoint = s.checkpoints.Progress(cam, loops)
		}
		infos = append(infos, info)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(infos)
}

// lookupCamera resolves the camera query parameter, defaulting to the first camera
func (s *Server) lookupCamera(values url.Values) (*renderer.Camera, error) {
	name := values.Get("camera")
	if name == "" && len(s.order) > 0 {
		name = s.order[0]
	}
	cam, ok := s.cameras[name]
	if !ok {
		return nil, fmt.Errorf("unknown camera: %s", name)
	}
	return cam, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// writeJSONError writes an error response with the given status
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
