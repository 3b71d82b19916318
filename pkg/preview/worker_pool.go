package preview

import (
	"context"
	"image"
	"runtime"
	"sync"
)

// TileTask is one tile of the scene layer for the worker pool
type TileTask struct {
	Ctx    context.Context
	Bounds image.Rectangle
	TaskID int // For deterministic ordering
}

// TileResult contains the result from rasterizing a tile
type TileResult struct {
	TaskID int
	Stats  RasterStats
	Error  error
}

// WorkerPool manages parallel tile rasterization
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual tile tasks
type Worker struct {
	ID          int
	raster      *TileRasterizer
	taskQueue   chan TileTask
	resultQueue chan TileResult
}

// NewWorkerPool creates a worker pool for maxTiles tiles. numWorkers <= 0
// uses one worker per CPU.
func NewWorkerPool(raster *TileRasterizer, maxTiles, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, maxTiles),   // Buffer for all tiles
		resultQueue: make(chan TileResult, maxTiles), // Buffer for all results
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			raster:      raster,
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
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
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
		if err := task.Ctx.Err(); err != nil {
			w.resultQueue <- TileResult{TaskID: task.TaskID, Error: err}
			continue
		}

		// Tiles never overlap, so workers write the shared image without locking
		stats := w.raster.RasterizeBounds(task.Bounds)
		w.resultQueue <- TileResult{TaskID: task.TaskID, Stats: stats}
	}
}

// tileBounds splits an image into tiles of at most size×size pixels
func tileBounds(bounds image.Rectangle, size int) []image.Rectangle {
	if size <= 0 {
		size = 64
	}
	var tiles []image.Rectangle
	for y := bounds.Min.Y; y < bounds.Max.Y; y += size {
		for x := bounds.Min.X; x < bounds.Max.X; x += size {
			tiles = append(tiles, image.Rect(x, y, min(x+size, bounds.Max.X), min(y+size, bounds.Max.Y)))
		}
	}
	return tiles
}
