package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/httpapi"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/logger"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/metrics"
)

const (
	shutdownTimeout  = 10 * time.Second
	evictionInterval = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve text interviews over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "address to listen on (default "+defaultListen+")")
	serveCmd.Flags().Bool("metrics", false, "expose prometheus metrics on /metrics")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.metrics", serveCmd.Flags().Lookup("metrics"))
}

func runServe() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := openStore(config, logger)
	defer st.Close()

	recorder := metrics.NewPrometheusRecorder(nil)

	services, err := newAI(ctx, config.AI, recorder, logger)
	if err != nil {
		logger.Fatal("building ai services", zap.Error(err))
	}

	deps := httpapi.Deps{
		Agent:       services.agent,
		Store:       st,
		Config:      config.interviewConfig(),
		Recorder:    recorder,
		Logger:      logger,
		IdleTimeout: config.Server.IdleTimeout,
	}
	if config.Server.Metrics {
		deps.Metrics = promhttp.Handler()
	}

	api, err := httpapi.New(deps)
	if err != nil {
		logger.Fatal("creating the http api", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              config.Server.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving interviews",
			zap.String("listen", config.Server.Listen),
			zap.Bool("metrics", config.Server.Metrics),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return api.RunEviction(gctx, evictionInterval)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		api.EndAll(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
	logger.Info("server stopped", zap.Int("active_sessions", api.Active()))
}
