// Package main is the podsearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/podsearch/internal/bench"
	"github.com/hyperjump/podsearch/internal/cli"
	"github.com/hyperjump/podsearch/internal/config"
	"github.com/hyperjump/podsearch/internal/embedding"
	"github.com/hyperjump/podsearch/internal/indexer"
	"github.com/hyperjump/podsearch/internal/models"
	"github.com/hyperjump/podsearch/internal/search"
	"github.com/hyperjump/podsearch/internal/server"
	"github.com/hyperjump/podsearch/internal/storage"
	"github.com/hyperjump/podsearch/internal/transcript"
	"github.com/hyperjump/podsearch/internal/vector"
	"github.com/hyperjump/podsearch/internal/watcher"
	"github.com/hyperjump/podsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/podsearch/config.yaml"

// Vector modes.
const (
	modeCreate = "create"
	modeLoad   = "load"
)

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence if it exists. Returns the config and
// the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "create":
		runCreate()
	case "search":
		runSearch()
	case "bench":
		runBench()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("podsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// commonFlags are shared by every command that touches the index.
type commonFlags struct {
	configPath *string
	debug      *bool
	vectorMode *string
	indexType  *string
	dataLimit  *int
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
		vectorMode: fs.String("vector-mode", modeLoad, "create: embed the transcripts now; load: read the saved vector file"),
		indexType:  fs.String("index", "", "index type: "+indexTypeList()+" (default from config)"),
		dataLimit:  fs.Int("data-limit", 0, "number of transcript files to read in create mode, -1 for all (default from config)"),
	}
}

func indexTypeList() string {
	names := make([]string, 0, len(vector.Types()))
	for _, t := range vector.Types() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// setup loads config, applies command-line overrides and builds a logger.
// CLI commands log to stderr at warn level unless debug is set.
func (f *commonFlags) setup() (*config.Config, *zap.Logger) {
	cfg, _, err := loadConfig(*f.configPath)
	if err != nil {
		exitf("Failed to load config: %v", err)
	}
	if err := applyOverrides(cfg, *f.indexType, *f.dataLimit); err != nil {
		exitf("Invalid flags: %v", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *f.debug)
	if err != nil {
		exitf("Failed to create logger: %v", err)
	}
	return cfg, logger
}

// applyOverrides copies non-zero flag values into cfg and revalidates it.
func applyOverrides(cfg *config.Config, indexType string, dataLimit int) error {
	if indexType != "" {
		cfg.Index.Type = indexType
	}
	if dataLimit != 0 {
		cfg.Data.Limit = dataLimit
	}
	return config.Validate(cfg)
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Indexer  *indexer.Indexer
	Index    *vector.Index
	Engine   *search.Engine
}

// Close releases the index, the embedder and the catalog.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	c.Embedder, err = embedding.New(cfg.Embedding, logger)
	if err != nil {
		// Fall back to the mock embedder if the model cannot be loaded.
		logger.Warn("embedder unavailable, falling back to mock",
			zap.String("provider", cfg.Embedding.Provider),
			zap.Error(err))
		c.Embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}

	opts := cfg.Index.Options()
	opts.Logger = logger
	backend, err := vector.NewBackend(cfg.Index.Type, opts)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	c.Index = vector.NewIndex(backend, vector.WithLogger(logger))
	c.Indexer = indexer.NewIndexer(store, c.Embedder,
		indexer.WithLogger(logger),
		indexer.WithBatchSize(cfg.Embedding.BatchSize))
	c.Engine = search.NewEngine(store, c.Indexer, c.Index, cfg.Search, search.WithLogger(logger))

	logger.Debug("components initialized",
		zap.String("index", string(backend.Type())),
		zap.Bool("faiss_available", vector.IsFAISSAvailable()))
	return c, nil
}

// loadEpisodes reads the show metadata file. A missing file is not an
// error; results then carry no episode details.
func loadEpisodes(path string, logger *zap.Logger) ([]*models.Episode, error) {
	episodes, err := transcript.ReadMetadata(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("metadata file not found, episodes will be unresolved", zap.String("path", path))
		return nil, nil
	}
	return episodes, err
}

// createSpace embeds the transcript corpus and persists the matrix and catalog.
func createSpace(ctx context.Context, c *Components, cfg *config.Config, logger *zap.Logger) (*indexer.CreateResult, error) {
	episodes, err := loadEpisodes(cfg.Data.MetadataPath, logger)
	if err != nil {
		return nil, err
	}
	reader := transcript.NewReader(cfg.Data.TranscriptsDir,
		transcript.WithLogger(logger),
		transcript.WithLimit(cfg.Data.Limit))
	return c.Indexer.Create(ctx, reader, episodes, cfg.Storage.VectorPath)
}

// prepareSpace returns the search space for mode.
func prepareSpace(ctx context.Context, c *Components, cfg *config.Config, logger *zap.Logger, mode string) (*vector.SearchSpace, error) {
	switch mode {
	case modeCreate:
		res, err := createSpace(ctx, c, cfg, logger)
		if err != nil {
			return nil, err
		}
		return res.Space, nil
	case modeLoad:
		return c.Indexer.Load(ctx, cfg.Storage.VectorPath)
	default:
		return nil, fmt.Errorf("%w: vector mode %q (use %s or %s)", vector.ErrInvalidArgument, mode, modeCreate, modeLoad)
	}
}

// buildIndex prepares the space and builds the configured index over it.
func buildIndex(ctx context.Context, c *Components, cfg *config.Config, logger *zap.Logger, mode string) error {
	space, err := prepareSpace(ctx, c, cfg, logger, mode)
	if err != nil {
		return err
	}
	return c.Engine.Rebuild(ctx, space)
}

func runCreate() {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	cf := addCommonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger := cf.setup()
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		exitf("Failed to initialize: %v", err)
	}
	defer components.Close()

	res, err := createSpace(context.Background(), components, cfg, logger)
	if err != nil {
		exitf("Create failed: %v", err)
	}
	fmt.Printf("Embedded %d utterances (%d dims) in %s\n",
		res.Utterances, res.Space.Dimensions(), utils.FormatDuration(res.Duration))
	fmt.Printf("Vectors:  %s\n", cfg.Storage.VectorPath)
	fmt.Printf("Catalog:  %s (%d episodes)\n", cfg.Storage.DatabasePath, res.Episodes)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: podsearch search [flags] [query]\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Without a query, the\ntopics in data.queries_path are run (up to search.query_limit).\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  podsearch search coffee brewing at home
  podsearch search --index kdtree --k 10 "basketball playoffs"
  podsearch search --vector-mode create --data-limit 20
  podsearch search --server http://localhost:8080 --output json "true crime"
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front so that flag.Parse sees them.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	cf := addCommonFlags(fs)
	k := fs.Int("k", 0, "number of results (default from config search.default_k, 5)")
	serverURL := fs.String("server", "", "search through a running server instead of building the index locally")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		exitf("%v", err)
	}
	queryStr := buildSearchQuery(fs.Args())

	if *serverURL != "" {
		if queryStr == "" {
			printSearchUsage(fs)
			os.Exit(1)
		}
		response, err := searchViaHTTP(*serverURL, &models.Query{Text: queryStr, K: *k})
		if err != nil {
			exitf("Search failed: %v", err)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			exitf("Output failed: %v", err)
		}
		return
	}

	cfg, logger := cf.setup()
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		exitf("Failed to initialize: %v", err)
	}
	defer components.Close()

	ctx := context.Background()
	if err := buildIndex(ctx, components, cfg, logger, *cf.vectorMode); err != nil {
		exitf("Index build failed: %v", err)
	}

	if queryStr != "" {
		response, err := components.Engine.Search(ctx, &models.Query{Text: queryStr, K: *k})
		if err != nil {
			exitf("Search failed: %v", err)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			exitf("Output failed: %v", err)
		}
		return
	}

	queries, err := transcript.ReadQueries(cfg.Data.QueriesPath, cfg.Search.QueryLimit)
	if err != nil {
		exitf("Failed to read queries: %v", err)
	}
	for _, q := range queries {
		q.K = *k
	}
	responses, err := components.Engine.SearchAll(ctx, queries)
	if err != nil {
		exitf("Search failed: %v", err)
	}
	if err := cli.WriteSearchResponses(os.Stdout, responses, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

func searchViaHTTP(serverURL string, query *models.Query) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// benchBackends resolves the backends to compare: the --backends list, else
// the --index type alone, else bench.backends from config.
func benchBackends(cfg *config.Config, backendsFlag, indexFlag string, logger *zap.Logger) ([]vector.Backend, error) {
	var names []string
	switch {
	case backendsFlag != "":
		for _, n := range strings.Split(backendsFlag, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	case indexFlag != "":
		names = []string{indexFlag}
	default:
		names = cfg.Bench.Backends
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no backends to benchmark", vector.ErrInvalidArgument)
	}
	opts := cfg.Index.Options()
	opts.Logger = logger
	backends := make([]vector.Backend, 0, len(names))
	for _, n := range names {
		b, err := vector.NewBackend(n, opts)
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	return backends, nil
}

// queryVectors embeds the benchmark topics and returns their vectors in order.
func queryVectors(ctx context.Context, idx *indexer.Indexer, queries []*models.Query) ([][]float32, error) {
	if err := idx.VectorizeQueries(ctx, queries); err != nil {
		return nil, err
	}
	out := make([][]float32, len(queries))
	for i, q := range queries {
		out[i] = q.Embedding
	}
	return out, nil
}

func runBench() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	cf := addCommonFlags(fs)
	backendsFlag := fs.String("backends", "", "comma-separated backends to compare (default from config bench.backends)")
	k := fs.Int("k", 0, "neighbors per query (default from config search.default_k, 5)")
	parallelism := fs.Int("parallelism", 0, "queries run concurrently (default from config)")
	recall := fs.Bool("recall", false, "report recall@k against an exact scan")
	queryLimit := fs.Int("query-limit", 0, "number of topics to run, 0 for all")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		exitf("%v", err)
	}
	cfg, logger := cf.setup()
	defer logger.Sync()

	backends, err := benchBackends(cfg, *backendsFlag, *cf.indexType, logger)
	if err != nil {
		exitf("Invalid backends: %v", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		exitf("Failed to initialize: %v", err)
	}
	defer components.Close()

	ctx := context.Background()
	space, err := prepareSpace(ctx, components, cfg, logger, *cf.vectorMode)
	if err != nil {
		exitf("Failed to prepare vectors: %v", err)
	}
	queries, err := transcript.ReadQueries(cfg.Data.QueriesPath, *queryLimit)
	if err != nil {
		exitf("Failed to read queries: %v", err)
	}
	vectors, err := queryVectors(ctx, components.Indexer, queries)
	if err != nil {
		exitf("Failed to embed queries: %v", err)
	}

	kk := *k
	if kk <= 0 {
		kk = cfg.Search.DefaultK
	}
	par := *parallelism
	if par <= 0 {
		par = cfg.Bench.Parallelism
	}
	harness := bench.New(bench.WithParallelism(par), bench.WithLogger(logger))
	reports, err := harness.Compare(ctx, backends, space, vectors, kk, *recall || cfg.Bench.Recall)
	if err != nil {
		exitf("Benchmark failed: %v", err)
	}
	if err := cli.WriteReports(os.Stdout, reports, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	cf := addCommonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*cf.configPath)
	if err != nil {
		exitf("Failed to load config: %v", err)
	}
	if err := applyOverrides(cfg, *cf.indexType, *cf.dataLimit); err != nil {
		exitf("Invalid flags: %v", err)
	}
	debugMode := cfg.Debug || *cf.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		exitf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("index", cfg.Index.Type),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := buildIndex(ctx, components, cfg, logger, *cf.vectorMode); err != nil {
		// Without a vector file the server still starts; searches return 503
		// until a rebuild or the watcher picks the file up.
		if !errors.Is(err, vector.ErrNotFound) || !cfg.Watch.Enabled {
			logger.Fatal("Failed to build index", zap.Error(err))
		}
		logger.Warn("Vector file missing, waiting for it", zap.String("path", cfg.Storage.VectorPath))
	}

	if cfg.Watch.Enabled {
		w := watcher.NewReloadWatcher(ctx, components.Engine, cfg.Storage.VectorPath,
			watcher.WithLogger(logger),
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond))
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(components.Engine, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Index      vector.Stats   `json:"index"`
	Utterances int64          `json:"utterances"`
	Episodes   int64          `json:"episodes"`
	Disk       storage.Usage  `json:"disk"`
	Config     map[string]any `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cf := addCommonFlags(fs)
	serverURL := fs.String("server", "", "server URL (empty = read local storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			exitf("Status failed: %v", err)
		}
		status = *res
	} else {
		cfg, logger := cf.setup()
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			exitf("Failed to initialize: %v", err)
		}
		defer components.Close()
		st, err := components.Engine.Status(context.Background(), cfg.Storage.VectorPath, cfg.Storage.DatabasePath)
		if err != nil {
			exitf("Status failed: %v", err)
		}
		status = statusResponse{
			Index:      st.Index,
			Utterances: st.Utterances,
			Episodes:   st.Episodes,
			Disk:       st.Disk,
			Config:     cfg.Summary(),
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			exitf("Output failed: %v", err)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		exitf("Unknown output format %q; use text or json", *outputFormat)
	}
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "utterances:         %d   # utterances in the catalog\n", status.Utterances)
	fmt.Fprintf(w, "episodes:           %d   # episodes with metadata\n", status.Episodes)
	fmt.Fprintf(w, "index_type:         %s\n", status.Index.Type)
	fmt.Fprintf(w, "index_built:        %t\n", status.Index.Built)
	if status.Index.Built {
		fmt.Fprintf(w, "index_vectors:      %d\n", status.Index.Vectors)
		fmt.Fprintf(w, "index_dimensions:   %d\n", status.Index.Dimensions)
		fmt.Fprintf(w, "index_build_time:   %s\n", utils.FormatDuration(status.Index.BuildTime))
	}
	fmt.Fprintf(w, "vector_bytes:       %d\n", status.Disk.VectorBytes)
	fmt.Fprintf(w, "database_bytes:     %d\n", status.Disk.DatabaseBytes)
	fmt.Fprintf(w, "disk_usage_bytes:   %d   # vectors + catalog on disk\n", status.Disk.Total())
	if len(status.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		keys := make([]string, 0, len(status.Config))
		for key := range status.Config {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "%-20s%v\n", key+":", status.Config[key])
		}
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	u, err := url.JoinPath(serverURL, "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`podsearch - nearest-neighbor search over podcast transcripts

Usage:
  podsearch create [flags]           Embed the transcripts and save vectors and catalog
  podsearch search [flags] [query]   Search utterances (topics file when no query)
  podsearch bench [flags]            Compare index backends on the topics file
  podsearch server [flags]           Start the HTTP server
  podsearch status [flags]           Show catalog, index and disk status
  podsearch version                  Show version
  podsearch help                     Show this help

Common Flags:
  --config string        Config file path (default: /usr/local/etc/podsearch/config.yaml)
  --debug                Enable debug logging
  --vector-mode string   create | load (default: load)
  --index string         linear, kdtree, balltree, cluster, graph, flat, faiss (default from config)
  --data-limit int       Transcript files to read in create mode, -1 for all

Search Flags:
  --k int                Number of results (default: 5)
  --server string        Search through a running server
  --output string        text, compact, or json (default: text)

Bench Flags:
  --backends string      Comma-separated backends (default from config)
  --k int                Neighbors per query (default: 5)
  --parallelism int      Concurrent queries
  --recall               Report recall@k against an exact scan
  --query-limit int      Number of topics to run, 0 for all
  --output string        text, compact, or json (default: text)

Status Flags:
  --server string        Server URL (empty = local storage)
  --output string        text or json (default: text)

Examples:
  podsearch create --data-limit 100
  podsearch search "coffee brewing"
  podsearch search --vector-mode create --index kdtree --k 10 "true crime"
  podsearch bench --backends linear,cluster,graph --recall
  podsearch server --index graph
  podsearch status --output json`)
}
