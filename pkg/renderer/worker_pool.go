package renderer

import (
	"context"
	"image"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/integrator"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Ctx  context.Context
	Tile Tile
	Loop int
}

// TileResult contains the result from rendering or resuming a tile. Pixels
// are in row-major order within Bounds and are not modified after delivery.
type TileResult struct {
	X, Y     int
	Bounds   image.Rectangle
	Pixels   []core.Colour
	Loop     int
	Resumed  bool
	Duration time.Duration
	Error    error
}

// WorkerPool manages parallel tile rendering
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual tile rendering tasks
type Worker struct {
	ID          int
	camera      *Camera
	evaluator   *integrator.Evaluator
	checkpoints *Checkpoints
	logger      core.Logger
	taskQueue   chan TileTask
	resultQueue chan TileResult
}

// DefaultWorkerCount returns the number of logical CPUs
func DefaultWorkerCount() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// NewWorkerPool creates a worker pool for one camera. Evaluators are read-only
// and shared across workers; checkpoints may be nil.
func NewWorkerPool(cam *Camera, ev *integrator.Evaluator, checkpoints *Checkpoints, logger core.Logger, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	maxTiles := cam.TileCount()
	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, maxTiles),
		resultQueue: make(chan TileResult, maxTiles),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			camera:      cam,
			evaluator:   ev,
			checkpoints: checkpoints,
			logger:      logger,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- w.process(task)
	}
}

func (w *Worker) process(task TileTask) TileResult {
	result := TileResult{X: task.Tile.X, Y: task.Tile.Y, Bounds: task.Tile.Bounds, Loop: task.Loop}
	if err := task.Ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	start := time.Now()
	if w.checkpoints != nil && w.checkpoints.Exists(w.camera.Name, task.Loop, task.Tile.X, task.Tile.Y) {
		pixels, err := w.checkpoints.Load(w.camera.Name, task.Loop, task.Tile)
		if err == nil {
			result.Pixels = pixels
			result.Resumed = true
			result.Duration = time.Since(start)
			return result
		}
		w.logger.Printf("Worker %d: ignoring unreadable checkpoint for tile (%d,%d) loop %d: %v\n",
			w.ID, task.Tile.X, task.Tile.Y, task.Loop, err)
	}

	random := rand.New(rand.NewSource(tileSeed(task.Tile, w.camera.NumTiles, task.Loop)))
	result.Pixels = renderTile(w.camera, w.evaluator, task.Tile, random)

	if w.checkpoints != nil {
		if err := w.checkpoints.Save(w.camera.Name, task.Loop, task.Tile, result.Pixels); err != nil {
			result.Error = err
		}
	}
	result.Duration = time.Since(start)
	return result
}
