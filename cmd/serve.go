package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/cache"
	"github.com/abhisek/calctutor/internal/logging"
	"github.com/abhisek/calctutor/internal/server"
	"github.com/abhisek/calctutor/internal/store"
	"github.com/abhisek/calctutor/internal/students"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutoring API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		if err := logging.Init(cfg.Log, os.Stderr); err != nil {
			return err
		}
		defer logging.Close()
		logger := logging.NewModuleLogger("cmd", "serve")
		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		var studentRepo store.StudentRepo = st.Students()
		if cfg.RedisURL != "" {
			rdb, err := cache.Open(ctx, cfg.RedisURL)
			if err != nil {
				// The store alone is enough to serve.
				logger.Warn("student cache disabled", "error", err)
			} else {
				defer rdb.Close()
				studentRepo = cache.NewStudents(studentRepo, rdb, cfg.CacheTTL, logging.NewModuleLogger("cache", "students"))
			}
		}

		client, err := assistant.NewClient(cfg.OpenAI, st.Events(), logging.NewModuleLogger("assistant", "client"))
		if err != nil {
			return fmt.Errorf("assistants client: %w", err)
		}

		boot := assistant.NewBootstrapper(client, st.Assistants(), cfg.OpenAI, logging.NewModuleLogger("assistant", "bootstrap"))
		assistantID, err := boot.Resolve(ctx)
		if err != nil {
			return fmt.Errorf("resolve assistant: %w", err)
		}
		logger.Info("using assistant", "assistant_id", assistantID)

		srv := server.New(cfg.Server.Addr, server.Deps{
			Students:   students.NewService(studentRepo, client, logging.NewModuleLogger("students", "service")),
			Assistants: client,
			Creator:    boot,
			Relay:      assistant.NewRelay(client, assistantID, cfg.Relay, logging.NewModuleLogger("assistant", "relay")),
			Logger:     logging.NewModuleLogger("server", "http"),
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides CALCTUTOR_SERVER_ADDR)")
}
