package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alphabot-ai/commentwall/internal/api"
	"github.com/alphabot-ai/commentwall/internal/comments"
	"github.com/alphabot-ai/commentwall/internal/config"
	"github.com/alphabot-ai/commentwall/internal/identity"
	"github.com/alphabot-ai/commentwall/internal/logging"
	"github.com/alphabot-ai/commentwall/internal/ratelimit"
	"github.com/alphabot-ai/commentwall/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var backend string

	root := &cobra.Command{
		Use:          "commentwall",
		Short:        "A single-board comment wall with replies, votes and favorites",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&backend, "storage", "", "storage backend override (sqlite, redis, memory)")

	load := func() *config.Config {
		cfg := config.Load()
		if backend != "" {
			cfg.StorageBackend = backend
		}
		logging.Setup(cfg.LogLevel, cfg.LogFormat)
		return cfg
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(load())
			},
		},
		&cobra.Command{
			Use:   "export",
			Short: "Print the persisted comment collection",
			RunE: func(cmd *cobra.Command, args []string) error {
				return export(cmd.Context(), load(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every persisted comment",
			RunE: func(cmd *cobra.Command, args []string) error {
				return clearStore(cmd.Context(), load())
			},
		},
	)

	return root
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s, err := store.Open(ctx, store.Options{
		Backend:       cfg.StorageBackend,
		Key:           cfg.StorageKey,
		DatabasePath:  cfg.DatabasePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageBackend, err)
	}
	return s, nil
}

func serve(cfg *config.Config) error {
	log := logging.For("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persist, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer persist.Close()

	board, err := comments.New(ctx, persist)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	identities := identity.NewHolder(identity.NewClient(cfg.IdentityURL, cfg.IdentityTimeout), nil)
	if identities.Refresh(ctx) == nil {
		log.Warn("starting without an identity; posting is disabled until a refresh succeeds")
	}

	commentLimiter := ratelimit.NewWindow(cfg.CommentRateLimit, cfg.RateLimitWindow)
	identityLimiter := ratelimit.NewWindow(cfg.IdentityRateLimit, cfg.RateLimitWindow)
	go commentLimiter.Run(ctx, 5*time.Minute)
	go identityLimiter.Run(ctx, 5*time.Minute)

	handler := api.NewHandler(board, identities,
		api.WithCommentLimiter(commentLimiter),
		api.WithIdentityLimiter(identityLimiter),
	).Routes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	// Create server with timeouts
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     addr,
			"storage":  cfg.StorageBackend,
			"comments": board.Len(),
		}).Info("starting commentwall")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server stopped")
	return nil
}

func export(ctx context.Context, cfg *config.Config, out io.Writer) error {
	persist, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer persist.Close()

	var data []byte
	if rr, ok := persist.(store.RawReader); ok {
		if data, err = rr.Raw(ctx); err != nil {
			return fmt.Errorf("read slot: %w", err)
		}
	}
	if data == nil {
		all, err := persist.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load comments: %w", err)
		}
		if data, err = store.Encode(all); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(out, string(data))
	return err
}

func clearStore(ctx context.Context, cfg *config.Config) error {
	persist, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer persist.Close()

	if err := persist.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear comments: %w", err)
	}
	logging.For("main").WithField("storage", cfg.StorageBackend).Info("comments cleared")
	return nil
}
