// Package profiler implements the debug-overlay instrument surfaced through
// runtime.Config.Debug: per-second frame-time/memory logging plus the pipeline
// cache hit/miss/eviction counters named in SPEC_FULL.md §4. Adapted from
// the teacher's engine/profiler/profiler.go, extended with the cache
// counters since this runtime owns a pipeline cache the teacher never had.
package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks frame rate, memory statistics, and pipeline-cache
// bookkeeping for performance monitoring. Outputs stats to the log at a
// configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	cacheHits      uint64
	cacheMisses    uint64
	cacheEvictions uint64
}

// NewProfiler creates a new Profiler with default settings. Update interval
// defaults to 1 second.
func NewProfiler() *Profiler {
	return &Profiler{
		frameCount:     0,
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
}

// RecordPipelineCacheStats updates the pipeline-cache counters the next
// logged tick will report. Called once per flush with the cache's current
// cumulative totals.
func (p *Profiler) RecordPipelineCacheStats(hits, misses, evictions uint64) {
	p.cacheHits = hits
	p.cacheMisses = misses
	p.cacheEvictions = evictions
}

// Tick should be called once per frame to track frame timing. Logs
// performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed >= p.updateInterval {
		fps := float64(p.frameCount) / elapsed.Seconds()

		runtime.ReadMemStats(&p.memStats)
		allocMB := float64(p.memStats.Alloc) / 1024 / 1024
		sysMB := float64(p.memStats.Sys) / 1024 / 1024

		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

		gcCount := p.memStats.NumGC
		var lastPauseUs, maxPauseUs uint64
		if gcCount > 0 {
			lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

			startIdx := p.lastGCCount
			if gcCount-startIdx > 256 {
				startIdx = gcCount - 256
			}
			for i := startIdx; i < gcCount; i++ {
				pause := p.memStats.PauseNs[i%256] / 1000
				if pause > maxPauseUs {
					maxPauseUs = pause
				}
			}
		}

		log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB | PipelineCache hits=%d misses=%d evictions=%d",
			fps, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB, p.cacheHits, p.cacheMisses, p.cacheEvictions)

		p.frameCount = 0
		p.lastTime = currentTime
		p.lastGCCount = gcCount
		p.lastTotalAlloc = p.memStats.TotalAlloc
		return true
	}

	return false
}
