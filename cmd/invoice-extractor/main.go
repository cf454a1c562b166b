package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/explorer-hello/ai-invoice-receipt-extractor/internal/extract"
	"github.com/explorer-hello/ai-invoice-receipt-extractor/internal/invoice"
	"github.com/explorer-hello/ai-invoice-receipt-extractor/internal/ocr"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A .env file is optional; flags and real env vars win
	godotenv.Load()

	fs := ff.NewFlagSet("invoice-extractor")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbDriver    = fs.StringLong("db-driver", "bolt", "Database driver: 'bolt' or 'postgres'")
		dbPath      = fs.StringLong("db", "invoices.db", "BoltDB file path")
		databaseURL = fs.StringLong("database-url", "", "PostgreSQL DSN (or set DATABASE_URL env var)")
		storagePath = fs.StringLong("storage", "data/uploads", "Upload storage directory")
		tessBinary  = fs.StringLong("tesseract", "tesseract", "Tesseract binary name or path")
		ocrLang     = fs.StringLong("ocr-lang", "eng", "Tesseract language")
		taggerType  = fs.StringLong("tagger", "none", "Entity tagger: 'none', 'gemini', or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llama3", "Ollama model name")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...", "driver", *dbDriver)
	var db invoice.DB
	var err error
	switch *dbDriver {
	case "bolt":
		db, err = invoice.NewBoltDB(*dbPath)
	case "postgres":
		dsn := *databaseURL
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		db, err = invoice.NewGormDB(dsn)
	default:
		slog.Error("Invalid database driver", "driver", *dbDriver, "valid", "bolt or postgres")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize storage
	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := invoice.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize OCR engine. Availability is re-checked per acquisition;
	// this startup probe just surfaces a missing binary early.
	engine := ocr.NewTesseract(*tessBinary, *ocrLang)
	if err := engine.Available(); err != nil {
		slog.Warn("OCR engine not available, uploads will fail until it is installed", "error", err)
	}
	acquirer := ocr.NewAcquirer(engine)

	// Initialize the optional entity tagger
	var tagger extract.Tagger
	switch *taggerType {
	case "none":
		slog.Info("No entity tagger configured, using heuristic extraction only")
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini tagger...", "model", *geminiModel)
		tagger, err = extract.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama tagger...", "url", *ollamaURL, "model", *ollamaModel)
		tagger, err = extract.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid tagger type", "type", *taggerType, "valid", "none, gemini, or ollama")
		os.Exit(1)
	}
	if tagger != nil {
		defer tagger.Close()
	}

	extractor := extract.NewExtractor(tagger)

	// Initialize service and server
	service := invoice.NewService(db, store, acquirer, extractor)
	server := invoice.NewServer(service)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
