package server

import (
	"fmt"
	"io"
	"time"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// ConsoleMessage is one renderer log line forwarded to the browser
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger for one render request. Lines are copied
// to echo (the server log) and offered to the console channel without blocking.
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	echo        io.Writer
}

// NewWebLogger creates a logger for a render. Either channel or echo may be nil.
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage, echo io.Writer) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		echo:        echo,
	}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if wl.echo != nil {
		fmt.Fprintf(wl.echo, "[%s] %s", wl.renderID, message)
	}
	if wl.consoleChan == nil {
		return
	}

	select {
	case wl.consoleChan <- ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     "info",
	}:
	default:
		// Slow client; drop the line rather than stall the renderer
	}
}
