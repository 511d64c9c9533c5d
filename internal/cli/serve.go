package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/handler"
	"github.com/devaloi/agora/internal/hub"
	"github.com/devaloi/agora/internal/logging"
	"github.com/devaloi/agora/internal/service"
	"github.com/devaloi/agora/internal/store"
	"github.com/devaloi/agora/internal/upload"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and realtime server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			logger := logging.L()

			s, err := store.NewSQLite(cfg.DBPath)
			if err != nil {
				logger.Error().Err(err).Str("db_path", cfg.DBPath).Msg("open store")
				return err
			}
			defer s.Close()

			avatars, err := upload.NewAvatarStore(cfg.UploadDir, cfg.MaxAvatarBytes)
			if err != nil {
				logger.Error().Err(err).Msg("open upload dir")
				return err
			}

			h := hub.New(logger)
			go h.Run()
			defer h.Stop()

			router := handler.NewRouter(handler.Deps{
				Hub:        h,
				Users:      service.NewUserService(s, auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)),
				Categories: service.NewCategoryService(s),
				Topics:     service.NewTopicService(s, s),
				Comments:   service.NewCommentService(s, s, h),
				Votes:      service.NewVoteService(s, s, s, h),
				Stats:      service.NewStatsService(s),
				Avatars:    avatars,
				Logger:     logger,
				CORSOrigin: cfg.CORSOrigin,
				SendBuffer: cfg.SendBuffer,
			})
			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("agora listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info().Msg("shutting down")
			shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}
