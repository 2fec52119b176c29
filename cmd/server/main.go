package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/dasmlab/ailocalize/pkg/cms"
	"github.com/dasmlab/ailocalize/pkg/config"
	"github.com/dasmlab/ailocalize/pkg/plugin"
	"github.com/dasmlab/ailocalize/pkg/server"
	"github.com/dasmlab/ailocalize/pkg/service"
	"github.com/dasmlab/ailocalize/pkg/translate"
)

var (
	// Server configuration flags
	port     = flag.Int("port", 8080, "HTTP server port")
	grpcPort = flag.Int("grpc-port", 50051, "gRPC health server port (0 disables it)")

	// Plugin and host configuration
	configPath = flag.String("config", "configs/config.example.yaml", "Path to the YAML configuration file (copy the example and set the API key)")
	dbPath     = flag.String("db", "ailocalize.db", "Path to the SQLite document database")

	// Logging configuration
	logLevel = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}

func run(logger *logrus.Logger) error {
	file, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	opts := file.Plugin

	logger.WithFields(logrus.Fields{
		"port":            *port,
		"grpc_port":       *grpcPort,
		"config":          *configPath,
		"db":              *dbPath,
		"engine":          opts.EngineName(),
		"model":           opts.Model(),
		"response_format": opts.Format(),
		"collections":     len(opts.Collections),
		"log_level":       logger.GetLevel().String(),
	}).Info("Starting AI localization server")

	// Registration errors are fatal before anything is opened.
	if err := opts.Validate(); err != nil {
		return err
	}

	store, err := cms.NewSQLiteStore(*dbPath, file.Host.Collections, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completer, err := newCompleter(ctx, opts, logger)
	if err != nil {
		return err
	}

	svc := service.NewTranslationService(store, file.Host, opts, completer, logger)
	registered, err := plugin.Apply(file.Host, opts, server.PluginHandlers(svc, logger))
	if err != nil {
		return err
	}

	httpServer := server.NewHTTPServer(registered, store, logger, *port)
	grpcAddr := ""
	if *grpcPort > 0 {
		grpcAddr = fmt.Sprintf(":%d", *grpcPort)
	}

	if err := serve(ctx, logger, httpServer, grpcAddr); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// httpRunner is the part of server.HTTPServer that serve drives.
type httpRunner interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs the HTTP server and, when grpcAddr is set, the gRPC health
// server until ctx is done or either fails. The gRPC listener is opened
// before anything starts, so a bind failure leaves nothing running.
func serve(ctx context.Context, logger *logrus.Logger, httpServer httpRunner, grpcAddr string) error {
	var lis net.Listener
	if grpcAddr != "" {
		var err error
		lis, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"addr": grpcAddr,
			}).Error("Failed to listen on port")
			return fmt.Errorf("listen %s: %w", grpcAddr, err)
		}
	}

	grpcServer, healthServer := newGRPCServer(logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)

	if lis != nil {
		g.Go(func() error {
			logger.WithFields(logrus.Fields{
				"addr": lis.Addr().String(),
			}).Info("gRPC health server listening")
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("failed to serve: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		err := httpServer.Shutdown(shutdownCtx)

		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			logger.Warn("Graceful shutdown timeout, forcing stop...")
			grpcServer.Stop()
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newCompleter(ctx context.Context, opts config.PluginOptions, logger *logrus.Logger) (translate.Completer, error) {
	engine, err := translate.ParseEngineType(opts.EngineName())
	if err != nil {
		return nil, err
	}

	cfg := translate.Config{
		Engine: engine,
		Model:  opts.Model(),
		Logger: logger,
	}
	switch engine {
	case translate.EngineGemini:
		cfg.APIKey = opts.Gemini.APIKey
	default:
		cfg.APIKey = opts.OpenAI.APIKey
		cfg.BaseURL = opts.OpenAI.BaseURL
	}

	completer, err := translate.NewCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Verify the backend is reachable
	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	logger.Info("Checking completion backend health...")
	if err := completer.CheckHealth(healthCtx); err != nil {
		logger.WithError(err).Warn("Completion backend health check failed, but continuing anyway")
		logger.Warn("Server will start, but translation requests may fail until the backend is reachable")
	} else {
		logger.Info("Completion backend health check passed")
	}

	return completer, nil
}

// newGRPCServer builds the health-only gRPC server used by orchestrators.
func newGRPCServer(logger *logrus.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.Creds(insecure.NewCredentials()),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              30 * time.Second,
			Timeout:           10 * time.Second,
		}),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	logger.Debug("Configured gRPC health server")
	return s, healthServer
}
