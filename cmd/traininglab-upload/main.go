package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/traininglab/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "TrainingLab server URL (e.g. https://traininglab.tail1234.ts.net)")
	dir := flag.String("path", "", "directory of .zwo workout files (searched recursively)")
	apiKey := flag.String("api-key", os.Getenv("TRAININGLAB_API_KEY"), "API key for the library endpoint")
	stateDir := flag.String("state-dir", "", "state database directory (default ~/.traininglab-upload)")
	dryRun := flag.Bool("dry-run", false, "parse and validate but don't send to server")
	every := flag.String("every", "", `keep running on a cron schedule, e.g. "@every 30m"`)
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("traininglab-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" {
		fmt.Fprintf(os.Stderr, "Usage: traininglab-upload -server <URL> -path <dir> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !*dryRun && (*serverURL == "" || *apiKey == "") {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}
	if info, err := os.Stat(*dir); err != nil || !info.IsDir() {
		log.Error("workout directory not found", "path", *dir)
		os.Exit(1)
	}

	if *stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(homeDir, ".traininglab-upload")
	}
	state, err := upload.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := upload.NewClient(*serverURL, *apiKey)
	if *dryRun {
		log.Info("DRY RUN mode: files will be parsed and validated but not sent")
	} else if err := client.Ping(ctx); err != nil {
		log.Error("server unreachable", "server", *serverURL, "error", err)
		os.Exit(1)
	}

	uploader := upload.New(client, state, *dir, *dryRun, log)
	if *every != "" {
		err := uploader.Watch(ctx, *every, func(stats upload.Stats, err error) {
			if err != nil {
				log.Error("upload failed", "error", err)
			}
			log.Info("upload run finished",
				"uploaded", stats.FilesUploaded,
				"skipped", stats.FilesSkipped,
				"existing", stats.FilesExisting,
				"errored", stats.FilesErrored,
			)
		})
		if err != nil {
			log.Error("watch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Already stored:   %d\n", stats.FilesExisting)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
}
