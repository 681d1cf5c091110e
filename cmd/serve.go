package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/landmark-studio/internal/config"
	"github.com/kozaktomas/landmark-studio/internal/database"
	"github.com/kozaktomas/landmark-studio/internal/database/postgres"
	"github.com/kozaktomas/landmark-studio/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Landmark Studio web server.
The server exposes the detection and adjustment API used by the canvas
frontend. With DATABASE_URL set, named adjustment snapshots are persisted
to PostgreSQL; without it the server runs fully in memory.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	var store database.AdjustmentStore
	if cfg.Database.URL != "" {
		fmt.Println("Connecting to PostgreSQL database...")
		pool, err := postgres.Initialize(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		defer pool.Close()

		store = postgres.NewAdjustmentRepository(pool)
		fmt.Println("Snapshot persistence enabled (PostgreSQL)")
	} else {
		fmt.Println("DATABASE_URL not set, snapshot persistence disabled")
	}

	port, host := resolveServeHostPort(cmd)

	server, err := web.NewServer(cfg, port, host, store)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Landmark Studio on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
