package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/traininglab/internal/config"
	"github.com/claude/traininglab/internal/mcp"
	"github.com/claude/traininglab/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode, direct database access)")
	serverURL := flag.String("server", "", "TrainingLab server URL (remote mode, e.g. https://traininglab.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("TRAININGLAB_API_KEY"), "API key for saving workouts in remote mode")
	ftp := flag.Int("ftp", 250, "default FTP in watts when no config is loaded")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("traininglab-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var lib mcp.Library
	defaultFTP := *ftp

	switch {
	case *serverURL != "" && *configPath != "":
		fmt.Fprintln(os.Stderr, "Error: use either -server or -config, not both")
		os.Exit(1)
	case *serverURL != "":
		lib = mcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("remote mode", "server", *serverURL)
	case *configPath != "":
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		lib = db
		defaultFTP = cfg.Workout.DefaultFTP
		log.Info("local mode", "database", cfg.Database.Name)
	default:
		log.Info("no library configured, library tools disabled")
	}

	s := mcp.New(lib, defaultFTP, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
