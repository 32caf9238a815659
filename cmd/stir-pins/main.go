// Command stir-pins stands in for the external PINS-based exploration
// engine (its scheduler, state hashing, and queueing are out of scope
// here): it reads the same PINS_STIR_MODEL / PINS_STIR_OUTPUT environment
// configuration the real plugin reads, builds the adapter from package
// stir/pins, and explores every reachable global state with a small
// worker pool, exercising the concurrency contract the evaluator and the
// dump writer describe without reimplementing the engine itself.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/golang/glog"

	"github.com/sws-lab/stir"
	"github.com/sws-lab/stir/pins"
)

func main() {
	flag.Parse()
	defer glog.Flush()

	modelPath, ok := os.LookupEnv("PINS_STIR_MODEL")
	if !ok {
		glog.Fatalf("expected PINS_STIR_MODEL to contain a valid filepath")
	}
	outputPath, ok := os.LookupEnv("PINS_STIR_OUTPUT")
	if !ok {
		glog.Fatalf("expected PINS_STIR_OUTPUT to contain a valid filepath")
	}

	model := stir.MustOpenModelFile(modelPath)

	out, err := os.Create(outputPath)
	if err != nil {
		stir.Fatal(err, "failed to create state dump")
	}

	dump := pins.NewDumpWriter(out, model.NumSlots())
	adapter, err := pins.NewAdapter(model, dump)
	if err != nil {
		stir.Fatal(err, "failed to initialize pins adapter")
	}

	explored := exploreReachableStates(adapter)

	if err := adapter.Teardown(); err != nil {
		stir.Fatal(err, "failed to flush state dump")
	}

	glog.Infof("explored %d reachable states, emitted %d dump records", explored, dump.Count())
}

// exploreReachableStates performs a breadth-first exploration of the
// reachable state space, dispatching NextState calls for the frontier's
// states across runtime.GOMAXPROCS(0) worker goroutines, since the
// evaluator may be invoked from multiple worker threads simultaneously. A
// shared visited set, guarded by a mutex, is the only synchronization
// beyond the adapter's own dump-writer lock.
func exploreReachableStates(adapter *pins.Adapter) int {
	numTransitions := adapter.Model.NumTransitions()

	var mu sync.Mutex
	visited := map[string]bool{}
	markVisited := func(s []int) bool {
		key := stateKey(s)
		mu.Lock()
		defer mu.Unlock()
		if visited[key] {
			return false
		}
		visited[key] = true
		return true
	}

	initial := adapter.Model.InitialState()
	markVisited(initial)
	frontier := [][]int{initial}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	for len(frontier) > 0 {
		jobs := make(chan []int, len(frontier))
		for _, s := range frontier {
			jobs <- s
		}
		close(jobs)

		nextCh := make(chan []int, len(frontier)*numTransitions)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for src := range jobs {
					for group := 0; group < numTransitions; group++ {
						if _, err := adapter.NextState(group, src, func(dst []int) {
							nextCh <- dst
						}); err != nil {
							stir.Fatal(err, "failed to compute successor state")
						}
					}
				}
			}()
		}

		go func() {
			wg.Wait()
			close(nextCh)
		}()

		var next [][]int
		for dst := range nextCh {
			if markVisited(dst) {
				next = append(next, dst)
			}
		}
		frontier = next
	}

	return len(visited)
}

func stateKey(s []int) string {
	return fmt.Sprint(s)
}
