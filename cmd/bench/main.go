// Command bench runs a synthetic glyph-lookup workload against the cmap
// cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/IvanBrykalov/cmapcache/cmap"
	"github.com/IvanBrykalov/cmapcache/font"
	"github.com/IvanBrykalov/cmapcache/font/sfntface"
	"github.com/IvanBrykalov/cmapcache/manager"
	pmet "github.com/IvanBrykalov/cmapcache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		budget   = flag.Int64("budget", manager.DefaultMaxWeight, "node weight budget (bytes)")
		numFaces = flag.Int("faces", 4, "number of distinct face identifiers")
		maxFaces = flag.Int("maxfaces", 2, "resolved-face cache bound")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		codes = flag.Int("codes", 1<<16, "character-code space per face")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "cmapcache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build manager + cache ----
	// Every face identifier resolves to the same real TrueType font, so
	// the workload exercises genuine cmap traffic without needing font
	// files on disk.
	m := manager.New(manager.Options{
		MaxWeight: *budget,
		MaxFaces:  *maxFaces,
		Metrics:   metrics,
		Resolver: func(id font.FaceID) (font.Face, error) {
			return sfntface.Parse(goregular.TTF)
		},
	})
	c, err := cmap.New(m)
	if err != nil {
		log.Fatal(err)
	}

	// ---- Snapshot flags for goroutines ----
	codesMax := uint64(*codes - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	facesN := *numFaces
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var total, glyphs uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, codesMax)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				faceID := font.FaceID("face:" + strconv.Itoa(localR.Intn(facesN)))
				code := uint32(localZipf.Uint64())

				atomic.AddUint64(&total, 1)
				if c.Lookup(faceID, 0, code) != 0 {
					atomic.AddUint64(&glyphs, 1)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	glyphsN := atomic.LoadUint64(&glyphs)

	hitRate := 0.0
	if ops > 0 {
		hitRate = float64(m.Hits()) / float64(m.Hits()+m.Misses()) * 100
	}

	fmt.Printf("budget=%d faces=%d maxfaces=%d workers=%d codes=%d dur=%v seed=%d\n",
		*budget, facesN, *maxFaces, workersN, *codes, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  mapped=%d (%.2f%%)\n",
		ops, float64(ops)/elapsed.Seconds(), glyphsN, float64(glyphsN)/float64(ops)*100)
	fmt.Printf("node hits=%d  misses=%d  hit-rate=%.2f%%  evictions=%d\n",
		m.Hits(), m.Misses(), hitRate, m.Evictions())
	fmt.Printf("Len()=%d  Weight()=%d\n", m.Len(), m.Weight())
}
