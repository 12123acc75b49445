package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/renderer"
)

// TileUpdate represents a single tile update sent via SSE
type TileUpdate struct {
	TileX      int    `json:"tileX"`
	TileY      int    `json:"tileY"`
	Left       int    `json:"left"` // Pixel offset of the tile
	Top        int    `json:"top"`
	ImageData  string `json:"imageData"` // Base64 encoded PNG of just this tile
	Loop       int    `json:"loop"`
	TileNumber int    `json:"tileNumber"` // Tiles finished so far in this loop (1-based)
	TotalTiles int    `json:"totalTiles"`
	TotalLoops int    `json:"totalLoops"`
	Resumed    bool   `json:"resumed"`
}

// CompleteUpdate is sent once the frame is finished
type CompleteUpdate struct {
	Camera         string `json:"camera"`
	ImageData      string `json:"imageData"` // Base64 encoded PNG of the finished frame
	ElapsedMs      int64  `json:"elapsedMs"`
	RenderedTiles  int    `json:"renderedTiles"`
	ResumedTiles   int    `json:"resumedTiles"`
	PrimarySamples int64  `json:"primarySamples"`
	ShadedVertices int64  `json:"shadedVertices"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "loopComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender renders one camera and streams tiles as they finish
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	cam, err := s.lookupCamera(r.URL.Query())
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	var consoleWG sync.WaitGroup
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	loops := s.scene.Settings.MaxLoops
	tilesDone := 0

	config := renderer.DefaultWorkerConfig()
	config.Logger = webLogger
	config.NumWorkers = s.numWorkers
	if r.URL.Query().Get("fresh") == "" {
		config.Checkpoints = s.checkpoints
	}
	config.OnTile = func(result renderer.TileResult) {
		tilesDone++
		s.handleTileUpdate(ctx, sseEventChan, result, tilesDone, cam.TileCount(), loops)
		if tilesDone == cam.TileCount() {
			tilesDone = 0
			s.sendJSONEvent(ctx, sseEventChan, "loopComplete", map[string]int{"loop": result.Loop, "totalLoops": loops})
		}
	}

	startTime := time.Now()
	frame, err := renderer.NewRenderer(s.scene, config).Render(ctx, cam)

	close(consoleChan)
	consoleWG.Wait()

	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	imageData, err := imageToBase64PNG(frame.Image())
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Failed to encode frame: %v", err))
		return
	}
	s.sendJSONEvent(ctx, sseEventChan, "complete", CompleteUpdate{
		Camera:         cam.Name,
		ImageData:      imageData,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		RenderedTiles:  frame.Stats.RenderedTiles,
		ResumedTiles:   frame.Stats.ResumedTiles,
		PrimarySamples: frame.Stats.PrimarySamples,
		ShadedVertices: frame.Stats.ShadedVertices,
	})
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	return consoleChan, NewWebLogger(renderID, consoleChan, os.Stdout)
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			return
		}
	}
}

// streamConsoleMessages forwards console messages until the channel closes
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for {
		select {
		case consoleMsg, ok := <-consoleChan:
			if !ok {
				return
			}

			data, err := json.Marshal(consoleMsg)
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}

			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleTileUpdate encodes a finished tile and queues it for the client
func (s *Server) handleTileUpdate(ctx context.Context, sseEventChan chan<- SSEEvent, result renderer.TileResult, tileNumber, totalTiles, totalLoops int) {
	tileData, err := imageToBase64PNG(tileImage(result))
	if err != nil {
		log.Printf("Error encoding tile image (%d, %d): %v", result.X, result.Y, err)
		return
	}

	s.sendJSONEvent(ctx, sseEventChan, "tile", TileUpdate{
		TileX:      result.X,
		TileY:      result.Y,
		Left:       result.Bounds.Min.X,
		Top:        result.Bounds.Min.Y,
		ImageData:  tileData,
		Loop:       result.Loop,
		TileNumber: tileNumber,
		TotalTiles: totalTiles,
		TotalLoops: totalLoops,
		Resumed:    result.Resumed,
	})
}

// sendJSONEvent marshals a payload and queues it as an SSE event
func (s *Server) sendJSONEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}

// tileImage converts a tile result into a standalone image
func tileImage(result renderer.TileResult) *image.NRGBA64 {
	w, h := result.Bounds.Dx(), result.Bounds.Dy()
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for i, p := range result.Pixels {
		img.SetNRGBA64(i%w, i/w, p.NRGBA64())
	}
	return img
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
