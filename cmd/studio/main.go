// Package main is the studio CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/authoring"
	"github.com/hyperjump/studio/internal/cli"
	"github.com/hyperjump/studio/internal/config"
	"github.com/hyperjump/studio/internal/extract"
	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/internal/provider"
	"github.com/hyperjump/studio/internal/server"
	"github.com/hyperjump/studio/internal/storage"
	"github.com/hyperjump/studio/internal/syncdoc"
	"github.com/hyperjump/studio/internal/uploads"
	"github.com/hyperjump/studio/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/studio/config.yaml"
	defaultServerURL  = "http://localhost:8787"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists. A missing file falls back to environment
// variables and defaults. Returns the config and the path that was used ("" for none).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(local); err == nil {
				path = local
			}
		}
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(path); err != nil {
		path = ""
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
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "extract":
		runExtract()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("studio version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(cfg, components.Authoring, components.Sync, components.Uploads, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// Components holds the services the server wires together.
type Components struct {
	Store     storage.DocumentStore
	Sync      *syncdoc.Service
	Uploads   *uploads.Store
	Authoring *authoring.Service
}

// Close releases the document store.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := os.MkdirAll(cfg.Storage.UploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	store, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync store: %w", err)
	}
	p, err := provider.New(cfg.AI, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	if p.Name() == config.ProviderOpenAI && strings.TrimSpace(cfg.AI.OpenAIAPIKey) == "" {
		logger.Warn("openai provider selected without an API key; AI requests will fail")
	}
	logger.Info("AI provider selected", zap.String("provider", p.Name()), zap.String("model", p.Model()))

	return &Components{
		Store:     store,
		Sync:      syncdoc.NewService(store, logger),
		Uploads:   uploads.NewStore(cfg.Storage.UploadsDir, logger),
		Authoring: authoring.NewService(p, logger),
	}, nil
}

// argsReorder moves flags that appear after positional arguments to the front,
// since flag parsing stops at the first non-flag argument.
func argsReorder(args []string) []string {
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

// joinArgs joins positional args so a message works with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

type askOptions struct {
	action      string
	kind        string
	scope       string
	title       string
	period      string
	focus       string
	prompt      string
	readingText string
	format      string
	message     string
}

func buildAuthoringRequest(o askOptions) (*models.AuthoringRequest, error) {
	action := models.Action(strings.ToLower(strings.TrimSpace(o.action)))
	if !action.Valid() {
		return nil, fmt.Errorf("unknown action %q; use draft, edit, overview, chat or setup", o.action)
	}
	return &models.AuthoringRequest{
		Action: action,
		Context: &models.AuthoringContext{
			Kind:        o.kind,
			Scope:       o.scope,
			Title:       o.title,
			Range:       o.period,
			Focus:       o.focus,
			Prompt:      o.prompt,
			ReadingText: o.readingText,
		},
		Message: o.message,
		Format:  o.format,
	}, nil
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	token := fs.String("token", os.Getenv("SYNC_TOKEN"), "sync token (default: $SYNC_TOKEN)")
	var o askOptions
	fs.StringVar(&o.action, "action", string(models.ActionChat), "draft, edit, overview, chat or setup")
	fs.StringVar(&o.kind, "kind", models.KindPhase, "record kind: phase or entity")
	fs.StringVar(&o.scope, "scope", models.ScopeSummary, "record scope: summary or subphase")
	fs.StringVar(&o.title, "title", "", "record title")
	fs.StringVar(&o.period, "range", "", "date range, e.g. 1868-1912")
	fs.StringVar(&o.focus, "focus", "", "focus of the request")
	fs.StringVar(&o.prompt, "prompt", "", "research prompt")
	fs.StringVar(&o.format, "format", "", `set to "html" to also render the reply as HTML`)
	file := fs.String("file", "", "local document whose text is sent as reading material")
	outputFormat := fs.String("output", "text", "output format: text or json")
	timeout := fs.Duration("timeout", 3*time.Minute, "request timeout")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	o.message = joinArgs(fs.Args())
	if *file != "" {
		text, err := extract.NewExtractor().Extract(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *file, err)
			os.Exit(1)
		}
		o.readingText = utils.Truncate(strings.TrimSpace(text), uploads.MaxTextChars)
	}
	req, err := buildAuthoringRequest(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	res, err := cli.NewClient(*serverURL, *token, *timeout).Ask(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AI request failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAuthoringResult(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	token := fs.String("token", os.Getenv("SYNC_TOKEN"), "sync token (default: $SYNC_TOKEN)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	st, err := cli.NewClient(*serverURL, *token, 30*time.Second).Status(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: studio extract [flags] <file>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	path := fs.Arg(0)
	text, err := extract.NewExtractor().Extract(path)
	if errors.Is(err, extract.ErrUnsupported) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(path), err)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extract failed: %v\n", err)
		os.Exit(1)
	}
	res := &models.AssetText{FileName: filepath.Base(path), Text: strings.TrimSpace(text)}
	if err := cli.WriteExtracted(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// writeInitialConfig writes a config with every default filled in. An existing file
// is kept unless force is set.
func writeInitialConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeInitialConfig(*configPath, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

func printUsage() {
	fmt.Println(`studio - History Studio backend: AI authoring gateway, sync and upload store

Usage:
  studio server [flags]            Start the HTTP server
  studio ask [flags] <message>     Send an authoring request to a running server
  studio status [flags]            Show provider, storage and upload status
  studio extract [flags] <file>    Print the text extracted from a local document
  studio init [flags]              Write a config file with defaults
  studio version                   Show version
  studio help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/studio/config.yaml, or ./config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --server string    Server URL (default: http://localhost:8787)
  --token string     Sync token (default: $SYNC_TOKEN)
  --action string    draft, edit, overview, chat or setup (default: chat)
  --kind, --scope, --title, --range, --focus, --prompt   Record context
  --file string      Local document sent as reading text
  --format string    "html" to also render the reply as HTML
  --output string    Output format: text or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:8787)
  --token string     Sync token (default: $SYNC_TOKEN)
  --output string    Output format: text or json (default: text)

Environment:
  PORT, HOST, DEBUG, OPENAI_API_KEY, OPENAI_MODEL, OPENAI_BASE_URL, AI_PROVIDER,
  OLLAMA_URL, OLLAMA_MODEL, SYNC_TOKEN, STUDIO_DATA_DIR, STUDIO_STORAGE_BACKEND,
  REDIS_URL, STUDIO_CORS_ORIGIN

Examples:
  studio server
  studio ask --action setup "the late Tokugawa shogunate"
  studio ask --action draft --title "Meiji Restoration" --range 1868-1889
  studio ask --file notes.pdf --output json "summarize the reading"
  studio status --output json
  studio extract treaty.docx`)
}
