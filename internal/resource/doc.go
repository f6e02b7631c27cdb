// Package resource implements a controller for memory, worker and IO limits.
//
//   - Memory: fail-fast budget checked before large allocations (tree arenas,
//     permutations, scratch buffers).
//   - Workers: a weighted semaphore bounding how many forked subtree builds run
//     at the same time. TryAcquireWorker never blocks, so fork-join code falls
//     back to running inline.
//   - IO: a token bucket limiting persistence throughput to blob stores.
//
// A nil *Controller is valid and imposes no limits:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    MaxWorkers:         int64(runtime.GOMAXPROCS(0) - 1),
//	    IOLimitBytesPerSec: 64 << 20,
//	})
package resource
