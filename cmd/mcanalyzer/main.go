// Command mcanalyzer is a CLI front end over the region/NBT/chunk analyzer
// library: point it at a world directory or archive and run a one-shot
// block lookup, a palette search, or a surface projection; or run it with
// "serve" to keep a cache warm, rescan on a schedule, and stream bulk-query
// progress over a websocket. Follows the familiar Go service-main shape:
// flag-based config path, then signal-driven graceful shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/go-mc-tools/chunkanalyzer/internal/cache"
	"github.com/go-mc-tools/chunkanalyzer/internal/chunk"
	"github.com/go-mc-tools/chunkanalyzer/internal/config"
	"github.com/go-mc-tools/chunkanalyzer/internal/diagnostics"
	"github.com/go-mc-tools/chunkanalyzer/internal/ingest"
	"github.com/go-mc-tools/chunkanalyzer/internal/progress"
	"github.com/go-mc-tools/chunkanalyzer/internal/scheduler"
	"github.com/go-mc-tools/chunkanalyzer/internal/surface"
	"github.com/go-mc-tools/chunkanalyzer/internal/worldindex"
	"github.com/go-mc-tools/chunkanalyzer/internal/worldinfo"
	"github.com/go-mc-tools/chunkanalyzer/pkg/coord"
	"github.com/go-mc-tools/chunkanalyzer/pkg/logger"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	worldFlag := flag.String("world", "", "world directory or archive (overrides config worlds.roots[0])")
	dimFlag := flag.String("dim", "", "dimension: overworld, nether, or end (overrides config)")
	flag.Parse()

	bootLog := logger.New()
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal("load configuration: %v", err)
	}
	log := logger.NewWithConfig(cfg.LoggerConfig())
	defer log.Close()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	worldRoot := *worldFlag
	if worldRoot == "" && len(cfg.Worlds.Roots) > 0 {
		worldRoot = cfg.Worlds.Roots[0]
	}
	if worldRoot == "" {
		log.Fatal("no world root given: pass -world or set worlds.roots in config")
	}

	dimName := *dimFlag
	if dimName == "" {
		dimName = cfg.Worlds.DefaultDimension
	}
	dim, err := parseDimension(dimName)
	if err != nil {
		log.Fatal("%v", err)
	}

	workDir, err := os.MkdirTemp("", "mcanalyzer-*")
	if err != nil {
		log.Fatal("create work directory: %v", err)
	}
	defer os.RemoveAll(workDir)

	worldDir, dimensionRoot, err := resolveDimensionRoot(context.Background(), worldRoot, workDir, dim)
	if err != nil {
		log.Fatal("resolve world: %v", err)
	}

	if info, err := worldinfo.Read(worldDir); err != nil {
		log.Warn("read level.dat: %v", err)
	} else {
		log.Info("world %q: seed=%d dataVersion=%d dimensions=%v", info.LevelName, info.Seed, info.DataVersion, info.Dimensions)
	}

	aliases, err := config.LoadBlockAliases(*configPath)
	if err != nil {
		log.Warn("load block aliases: %v", err)
		aliases = config.BlockAliases{}
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		s, err := cache.NewSQLiteStore(cfg.Cache.DBPath)
		if err != nil {
			log.Fatal("open cache: %v", err)
		}
		defer s.Close()
		store = s
	}
	workerLimit := cfg.Query.BulkWorkers

	switch args[0] {
	case "find":
		runFind(log, dimensionRoot, dim, aliases, store, workerLimit, args[1:])
	case "get":
		runGet(log, dimensionRoot, dim, store, workerLimit, args[1:])
	case "project":
		runProject(log, dimensionRoot, dim, store, workerLimit, args[1:])
	case "serve":
		runServe(log, cfg, dimensionRoot, dim, store, workerLimit)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: mcanalyzer [-config path] [-world path] [-dim overworld|nether|end] <command> [args]

commands:
  find <blockName> <x1> <z1> <x2> <z2>   list every blockName block as "x y z name" (x, z chunk-local)
  get <x> <y> <z>                         look up a single block
  project <x1> <z1> <x2> <z2>             project the world-surface block for every column in the area
  serve                                    run the cache-backed rescan scheduler and progress server
                                           (GET /project?x1=&z1=&x2=&z2= to trigger a projection, then
                                           GET /progress?query_id= over a websocket to watch it run)`)
}

func parseDimension(name string) (coord.Dimension, error) {
	switch strings.ToLower(name) {
	case "", "overworld":
		return coord.Overworld, nil
	case "nether":
		return coord.Nether, nil
	case "end":
		return coord.End, nil
	default:
		return 0, fmt.Errorf("unknown dimension %q", name)
	}
}

// resolveDimensionRoot prepares worldRoot (extracting it first if it's an
// archive) and returns both the world directory (where level.dat lives) and
// the dimension's region sub-path.
func resolveDimensionRoot(ctx context.Context, worldRoot, workDir string, dim coord.Dimension) (worldDir, dimensionRoot string, err error) {
	prepared, err := ingest.Prepare(ctx, worldRoot, workDir)
	if err != nil {
		return "", "", err
	}
	worldDir, err = ingest.FindWorldDir(prepared)
	if err != nil {
		worldDir = prepared
	}
	if sub := dim.RegionSubpath(); sub != "" {
		return worldDir, worldDir + string(os.PathSeparator) + sub, nil
	}
	return worldDir, worldDir, nil
}

func parseInt(s, what string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s %q: %v\n", what, s, err)
		os.Exit(2)
	}
	return n
}

// atoiDefault parses s as an int, falling back to def for an empty or
// malformed value — used for the /project endpoint's query parameters.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func runFind(log *logger.Logger, dimensionRoot string, dim coord.Dimension, aliases config.BlockAliases, store *cache.Store, workerLimit int, args []string) {
	if len(args) != 5 {
		usage()
		os.Exit(2)
	}
	blockName := aliases.Resolve(args[0])
	area := coord.NewCorners(
		parseInt(args[1], "x1"), parseInt(args[2], "z1"),
		parseInt(args[3], "x2"), parseInt(args[4], "z2"),
	)

	results, failures := worldindex.ResolveArea(context.Background(), dimensionRoot, dim, area, store, workerLimit)
	var diag diagnostics.List
	diag.AddAll(failures)

	yMin, yMax := dim.YRange()
	for _, r := range results {
		for _, raw := range r.Chunks {
			c, err := chunk.ParseChunk(raw.CX, raw.CZ, raw.Data)
			if err != nil {
				diag.Add(err)
				continue
			}
			for _, hit := range c.FindInArea(blockName, yMin, yMax) {
				fmt.Printf("%d %d %d %s\n", hit.X, hit.Y, hit.Z, blockName)
			}
		}
	}
	reportDiagnostics(log, &diag)
}

func runGet(log *logger.Logger, dimensionRoot string, dim coord.Dimension, store *cache.Store, workerLimit int, args []string) {
	if len(args) != 3 {
		usage()
		os.Exit(2)
	}
	x := parseInt(args[0], "x")
	y := parseInt(args[1], "y")
	z := parseInt(args[2], "z")
	cx, cz := floorDiv(x, 16), floorDiv(z, 16)

	area := coord.NewCorners(cx, cz, cx, cz)
	results, failures := worldindex.ResolveArea(context.Background(), dimensionRoot, dim, area, store, workerLimit)
	var diag diagnostics.List
	diag.AddAll(failures)

	for _, r := range results {
		raw, ok := r.Region.Get(cx, cz)
		if !ok || !raw.Present {
			continue
		}
		c, err := chunk.ParseChunk(cx, cz, raw.Data)
		if err != nil {
			diag.Add(err)
			continue
		}
		fmt.Println(c.Get(x-cx*16, y, z-cz*16))
		reportDiagnostics(log, &diag)
		return
	}
	fmt.Println("minecraft:air")
	reportDiagnostics(log, &diag)
}

func runProject(log *logger.Logger, dimensionRoot string, dim coord.Dimension, store *cache.Store, workerLimit int, args []string) {
	if len(args) != 4 {
		usage()
		os.Exit(2)
	}
	area := coord.NewCorners(
		parseInt(args[0], "x1"), parseInt(args[1], "z1"),
		parseInt(args[2], "x2"), parseInt(args[3], "z2"),
	)

	queryID := uuid.NewString()
	log.Info("project %s: query %s starting over %d chunk columns", dim, queryID, (area.XMax-area.XMin+1)*(area.ZMax-area.ZMin+1))

	// A one-shot CLI run has no websocket client to stream progress to, so
	// it runs with no hub; "serve"'s /project endpoint is where progress
	// events actually reach a subscriber.
	matrix, failures := surface.ProjectArea(context.Background(), dimensionRoot, dim, area, store, workerLimit, nil, queryID)
	var diag diagnostics.List
	diag.AddAll(failures)

	for cz := area.ZMin; cz <= area.ZMax; cz++ {
		for cx := area.XMin; cx <= area.XMax; cx++ {
			cell := matrix.Get(cx, cz)
			fmt.Printf("chunk %d,%d: %s ... %s\n", cx, cz, cell[0], cell[len(cell)-1])
		}
	}
	reportDiagnostics(log, &diag)
}

func runServe(log *logger.Logger, cfg *config.Config, dimensionRoot string, dim coord.Dimension, store *cache.Store, workerLimit int) {
	hub := progress.NewHub(log)
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/progress", hub.ServeHTTP)
	mux.HandleFunc("/project", func(w http.ResponseWriter, r *http.Request) {
		queryID := r.URL.Query().Get("query_id")
		if queryID == "" {
			queryID = uuid.NewString()
		}
		area := coord.NewCorners(
			atoiDefault(r.URL.Query().Get("x1"), 0), atoiDefault(r.URL.Query().Get("z1"), 0),
			atoiDefault(r.URL.Query().Get("x2"), 0), atoiDefault(r.URL.Query().Get("z2"), 0),
		)
		go func() {
			_, failures := surface.ProjectArea(context.Background(), dimensionRoot, dim, area, store, workerLimit, hub, queryID)
			for _, f := range failures {
				log.Warn("project %s: %v", queryID, f)
			}
		}()
		fmt.Fprintln(w, queryID)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{Addr: ":8090", Handler: mux}
	go func() {
		log.Info("progress server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("progress server: %v", err)
		}
	}()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		rescan := func(ctx context.Context) []error {
			results, failures := worldindex.ResolveArea(ctx, dimensionRoot, dim, coord.NewCorners(-16, -16, 16, 16), store, workerLimit)
			if store != nil {
				known := make([]string, len(results))
				for i, r := range results {
					known[i] = r.Path
				}
				if err := store.EvictStale(known); err != nil {
					failures = append(failures, err)
				}
			}
			return failures
		}
		s, err := scheduler.New(cfg.Scheduler.RescanCron, rescan, log)
		if err != nil {
			log.Fatal("build scheduler: %v", err)
		}
		if err := s.Start(); err != nil {
			log.Fatal("start scheduler: %v", err)
		}
		sched = s
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if sched != nil {
		sched.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown: %v", err)
	}
}

func reportDiagnostics(log *logger.Logger, diag *diagnostics.List) {
	for _, err := range diag.Errors() {
		log.Warn("%v", err)
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
