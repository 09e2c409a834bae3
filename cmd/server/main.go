package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"managemint/internal/auth"
	"managemint/internal/config"
	"managemint/internal/database"
	"managemint/internal/logger"
	"managemint/internal/notify"
	"managemint/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "managemint",
		Short:         "Back-office API for consultant marketing and placement",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), migrateCmd(), createAdminCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatalf("managemint: %v", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer lg.Sync() //nolint:errcheck
			if err := database.Migrate(db); err != nil {
				return err
			}
			lg.Info("schema migrated")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer lg.Sync() //nolint:errcheck
			if err := database.Migrate(db); err != nil {
				return err
			}
			u, err := database.CreateAdmin(db, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.Open(cfg.Database, lg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, lg, db, nil
}

func serve(ctx context.Context) error {
	cfg, lg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer lg.Sync() //nolint:errcheck

	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.EnsureAdmin(db, cfg.AdminEmail, cfg.AdminPassword, lg); err != nil {
		return err
	}

	var sender notify.Sender
	switch cfg.Mail.Driver {
	case "ses":
		ses, err := notify.NewSESSender(ctx, cfg.Mail.AWSRegion, cfg.Mail.AWSAccessKey,
			cfg.Mail.AWSSecretKey, cfg.Mail.AWSSessionToken, cfg.Mail.From)
		if err != nil {
			return err
		}
		sender = ses
	default:
		sender = notify.NewLogSender(lg)
	}
	notifier := notify.New(sender, lg)
	defer notifier.Close()

	handler := server.NewRouter(server.Options{
		DB:            db,
		Logger:        lg,
		Notifier:      notifier,
		Tokens:        auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		SessionSecret: cfg.SessionSecret,
		FrontendURL:   cfg.FrontendURL,
		SecureCookie:  strings.HasPrefix(cfg.FrontendURL, "https://"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
