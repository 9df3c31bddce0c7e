/*
	Load generator for a running MinkDB server. Every worker overwrites keys
	from a fixed universe, so the log grows with garbage while the key count
	stays bounded, then reads keys back to exercise the offset lookups.
*/

package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xRadioAc7iv/minkdb/internal/config"
	"github.com/0xRadioAc7iv/minkdb/minkdb"
)

const (
	// Fixed universe
	totalKeys   = 100
	totalValues = 100

	// Per-cycle behavior
	keysPerCycleWrite = 20
	keysPerCycleRead  = 20

	sleepBetweenCycles = 10 * time.Millisecond

	progressEvery = 500
)

var (
	reads  atomic.Int64
	misses atomic.Int64
	writes atomic.Int64
)

func main() {
	host := flag.String("host", config.DefaultHost, "MinkDB server host")
	port := flag.Int("port", config.DefaultPort, "MinkDB server port")
	concurrency := flag.Int("workers", 6, "number of concurrent clients")
	cycles := flag.Int("cycles", 5000, "cycles per worker")
	flag.Parse()

	start := time.Now()
	fmt.Println("Starting MinkDB overwrite-heavy load generator")

	keys := makeKeys(totalKeys)
	values := makeValues(totalValues)

	var wg sync.WaitGroup

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, *host, *port, *cycles, keys, values)
		}(i)
	}

	wg.Wait()
	fmt.Printf("Load finished in %v: %d writes, %d reads (%d misses)\n",
		time.Since(start), writes.Load(), reads.Load(), misses.Load())
}

func runWorker(id int, host string, port int, cycles int, keys []string, values []string) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	client, err := minkdb.Connect(minkdb.WithHost(host), minkdb.WithPort(port))
	if err != nil {
		fmt.Printf("[worker %d] connect error: %v\n", id, err)
		return
	}
	defer client.Close()

	for cycle := 1; cycle <= cycles; cycle++ {

		// ---- WRITE / OVERWRITE PHASE (every overwrite leaves garbage) ----
		for i := 0; i < keysPerCycleWrite; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := client.Put(key, val); err != nil {
				fmt.Printf("[worker %d] PUT error: %v\n", id, err)
				return
			}
			writes.Add(1)
		}

		// ---- READ PHASE ----
		for i := 0; i < keysPerCycleRead; i++ {
			key := keys[rng.Intn(len(keys))]

			_, found, err := client.Get(key)
			if err != nil {
				fmt.Printf("[worker %d] GET error: %v\n", id, err)
				return
			}
			reads.Add(1)
			if !found {
				misses.Add(1)
			}
		}

		if cycle%progressEvery == 0 {
			fmt.Printf("[worker %d] completed %d cycles\n", id, cycle)
		}

		if sleepBetweenCycles > 0 {
			time.Sleep(sleepBetweenCycles)
		}
	}
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func makeValues(n int) []string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("value-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i)
	}
	return values
}
