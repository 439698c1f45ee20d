// cmd/serve.go
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/covdash/covdash/internal/config"
	"github.com/covdash/covdash/internal/db"
	"github.com/covdash/covdash/internal/log"
	"github.com/covdash/covdash/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the covdash server",
	Long:  `Starts the HTTP server with the dashboard, the OAuth flow, and the token exchange endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// CLI flags override environment variables
		if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		if host, _ := cmd.Flags().GetString("host"); cmd.Flags().Changed("host") {
			cfg.Host = host
		}
		if dbPath, _ := cmd.Flags().GetString("db"); cmd.Flags().Changed("db") {
			cfg.DBPath = dbPath
		}

		if err := log.Init(cfg.Log()); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		if cfg.GitHubClientID == "" {
			fmt.Println("Warning: COVDASH_GITHUB_CLIENT_ID is not set; GitHub login is disabled.")
		}
		if cfg.GitHubClientSecret == "" {
			fmt.Println("Warning: COVDASH_GITHUB_CLIENT_SECRET is not set; the token exchange endpoint will refuse requests.")
		}

		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			return fmt.Errorf("database not found at %s. Run 'covdash init' first", cfg.DBPath)
		}

		database, err := db.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		// Run migrations in case the schema is outdated
		if err := database.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		srv := server.New(cfg, database)
		addr := cfg.Addr()
		fmt.Printf("Starting covdash on %s\n", addr)
		fmt.Printf("  Dashboard:      %s\n", cfg.BaseURL)
		fmt.Printf("  OAuth callback: %s\n", cfg.RedirectURI)
		fmt.Printf("  Token exchange: %s\n", cfg.ProxyURL)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-stop:
			log.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("db", "covdash.db", "Path to database file")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}
