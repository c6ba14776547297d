package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"reelpublisher/internal/adapters/graph"
	"reelpublisher/internal/adapters/localstorage"
	"reelpublisher/internal/adapters/probe"
	"reelpublisher/internal/config"
	"reelpublisher/internal/core/domain"
	"reelpublisher/internal/core/ports"
	"reelpublisher/internal/logging"
	"reelpublisher/internal/service"
)

const defaultCaption = "Posted via API 🚀"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, deps{}))
}

// deps are the seams tests replace; zero values mean production defaults.
type deps struct {
	httpClient *http.Client
	sleep      service.Sleeper
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, d deps) int {
	fs := flag.NewFlagSet("reels-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	videoURL := fs.String("video-url", "", "Public HTTPS .mp4 URL")
	caption := fs.String("caption", defaultCaption, "Reel caption")
	dataDir := fs.String("data-dir", "", "Directory for per-run records (disabled when empty)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: stderr})

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("missing ACCESS_TOKEN or IG_USER_ID (environment or .env)")
		return 1
	}
	if *videoURL == "" {
		fmt.Fprintln(stderr, "Usage: reels-cli --video-url <https-url> [--caption <text>] [--data-dir <path>]")
		fmt.Fprintln(stderr, "\nExample:")
		fmt.Fprintln(stderr, "  reels-cli --video-url https://github.com/user/repo/raw/refs/heads/main/clip.mp4")
		return 1
	}

	orchestrator := newOrchestrator(cfg, *dataDir, logger, d)

	result, err := orchestrator.RunJob(ctx, *videoURL, *caption)
	printSummary(stdout, result)
	if err != nil {
		fmt.Fprintf(stdout, "\n❌ %s\n", describe(err))
		return 1
	}
	return 0
}

func newOrchestrator(cfg config.Config, dataDir string, logger zerolog.Logger, d deps) *service.Orchestrator {
	httpClient := d.httpClient
	if httpClient == nil {
		// One client for every call so connections are kept alive.
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 15 * time.Second,
			},
		}
	}

	client := graph.NewClient(graph.Config{
		BaseURL:      cfg.GraphBaseURL,
		AccessToken:  cfg.AccessToken,
		UserID:       cfg.UserID,
		AppSecret:    cfg.AppSecret,
		WriteTimeout: cfg.APIWriteTimeout,
		ReadTimeout:  cfg.APIReadTimeout,
	}, httpClient)
	prober := probe.NewHTTPProber(httpClient, cfg.ProbeTimeout)

	var storage ports.Storage = localstorage.Discard{}
	if dataDir != "" {
		storage = localstorage.NewLocalStorage(dataDir)
	}

	o := service.NewOrchestrator(client, prober, storage, cfg.Poll, logger)
	if d.sleep != nil {
		o.SetSleeper(d.sleep)
	}
	return o
}

// describe prefixes err with the step that failed.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrResourceUnreachable), errors.Is(err, domain.ErrUnexpectedContentType):
		return err.Error()
	case errors.Is(err, domain.ErrSubmissionRejected):
		return "Create failed: " + err.Error()
	case errors.Is(err, domain.ErrStatusCheckFailed):
		return "Status failed: " + err.Error()
	case errors.Is(err, domain.ErrProcessingFailed):
		return "Processing failed in IG pipeline: " + err.Error()
	case errors.Is(err, domain.ErrProcessingTimedOut):
		return "Timed out waiting for processing: " + err.Error()
	case errors.Is(err, domain.ErrPublishRejected):
		return "Publish failed: " + err.Error()
	default:
		return err.Error()
	}
}

func printSummary(w io.Writer, result *domain.JobResult) {
	fmt.Fprintln(w, "\n=== Run Summary ===")
	fmt.Fprintf(w, "Run ID:       %s\n", result.RunID)
	if job := result.Job; job != nil {
		fmt.Fprintf(w, "Creation ID:  %s\n", job.CreationID)
		fmt.Fprintf(w, "State:        %s\n", job.State)
		fmt.Fprintf(w, "Polls:        %d (waited %s)\n", job.Polls, job.Waited)
	}
	fmt.Fprintf(w, "Success:      %t\n", result.Success)
	if m := result.Media; m != nil {
		fmt.Fprintf(w, "Media ID:     %s\n", m.MediaID)
		if m.Permalink != "" {
			fmt.Fprintf(w, "Permalink:    %s\n", m.Permalink)
		}
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warn)
	}
	fmt.Fprintf(w, "Completed At: %s\n", result.CompletedAt.Format(time.RFC3339))
}
