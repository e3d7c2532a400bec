// Command recipe-scribe is the main entrypoint for the recipe bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Resolves the allow-list of Twitch logins to stable user IDs.
//   - Joins Twitch chat and turns "!recipe <link>" commands into saved recipes.
//   - Exposes a minimal HTTP server with /healthz, /status, /recipes, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/recipe-scribe/chat"
	"github.com/onnwee/recipe-scribe/config"
	"github.com/onnwee/recipe-scribe/db"
	"github.com/onnwee/recipe-scribe/pipeline"
	"github.com/onnwee/recipe-scribe/server"
	"github.com/onnwee/recipe-scribe/sink"
	"github.com/onnwee/recipe-scribe/synthesis"
	"github.com/onnwee/recipe-scribe/telemetry"
	"github.com/onnwee/recipe-scribe/twitchapi"
	"github.com/onnwee/recipe-scribe/youtube"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Error("config incomplete", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateSynthesisReady(); err != nil {
		slog.Error("config incomplete", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("recipe-scribe", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// DB
	database, err := db.Connect(cfg.DBDsn)
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()

	// Versioned migrations first, embedded SQL as fallback for deployments
	// predating the schema_migrations table.
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
			slog.Any("err", err),
			slog.String("component", "db_migrate"))
		if err := db.Migrate(context.Background(), database); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
	}

	// Resolve the allow-list of logins to stable user IDs via Helix.
	helix := &twitchapi.HelixClient{
		AppTokenSource: &twitchapi.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret},
		ClientID:       cfg.TwitchClientID,
	}
	resolveCtx, cancelResolve := context.WithTimeout(context.Background(), 15*time.Second)
	allowedIDs, err := helix.ResolveUserIDs(resolveCtx, cfg.AllowedUsers)
	cancelResolve()
	if err != nil {
		slog.Error("failed to resolve allow-list", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("allow-list resolved", slog.Int("users", len(allowedIDs)))

	// Pipeline dependencies.
	yt := &youtube.Client{APIKey: cfg.YouTubeAPIKey}
	synth, err := synthesis.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Error("failed to init synthesis client", slog.Any("err", err))
		os.Exit(1)
	}
	var out sink.Sink
	switch cfg.Sink {
	case config.SinkStore:
		out = &sink.Store{DB: database}
	default:
		out = &sink.File{Dir: cfg.DataDir}
	}
	slog.Info("sink configured", slog.String("kind", out.Kind()))

	// Title lookups require a Data API key; without one the pipeline runs
	// from transcripts alone.
	var meta pipeline.MetaLookup
	if cfg.YouTubeAPIKey != "" {
		meta = yt
	}
	coord := pipeline.New(allowedIDs, yt, synth, out, meta, database)

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go chat.StartRecipeBot(ctx, cfg.TwitchBotUsername, cfg.TwitchOAuthToken, cfg.TwitchChannel, cfg.Command, coord)

	// HTTP server (health/status/recipes/metrics)
	go func() {
		if err := server.Start(ctx, database, cfg.DataDir, cfg.Sink, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
