package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ev-risk/internal/api"
	"github.com/sells-group/ev-risk/internal/metrics"
	"github.com/sells-group/ev-risk/internal/refdata"
	"github.com/sells-group/ev-risk/internal/scoring"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		// Reference data is required; a parse failure stops startup.
		snap, err := refdata.NewProvider(cfg.Refdata.Dir).Snapshot(ctx)
		if err != nil {
			return err
		}
		for _, w := range refdata.Check(snap) {
			zap.L().Warn("refdata integrity", zap.String("warning", w))
		}

		m := metrics.New()
		m.SetRefdataRows(snap.Counts())
		engine := scoring.NewEngine(snap, scoring.WithObserver(m))

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		poller := metrics.NewPoller(st, m,
			time.Duration(cfg.Metrics.RefreshIntervalSecs)*time.Second,
			time.Duration(cfg.Metrics.LookbackDays)*24*time.Hour,
		)
		go poller.Run(ctx)

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: api.NewRouter(api.Deps{
				Scorer:   engine,
				Store:    st,
				Metrics:  m,
				API:      cfg.API,
				AsOfYear: cfg.Scoring.AsOfYear,
			}),
			ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("refdata_version", snap.Version()),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
