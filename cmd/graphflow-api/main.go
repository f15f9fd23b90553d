// Graphflow API — HTTP сервер редактора графов.
//
// Сохраняет и загружает графы по имени, выполняет обработчики
// типов узлов и отдаёт CRUD под /api/v1. Если задан AMQP_URL,
// публикует события workflow.saved и node.executed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Graphflow/internal/api"
	"github.com/shaiso/Graphflow/internal/config"
	"github.com/shaiso/Graphflow/internal/dispatch"
	"github.com/shaiso/Graphflow/internal/mq"
	"github.com/shaiso/Graphflow/internal/repo"
	"github.com/shaiso/Graphflow/internal/repo/sqlite"
	"github.com/shaiso/Graphflow/internal/telemetry"
)

var startTime = time.Now()

// stores — выбранная реализация хранилища и функция её закрытия.
type stores struct {
	workflows repo.WorkflowStore
	nodes     repo.NodeStore
	close     func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			workflows: sqlite.NewWorkflowRepo(db),
			nodes:     sqlite.NewNodeRepo(db),
			close:     func() { db.Close() },
		}, nil

	default:
		pool, err := repo.NewPool(ctx, cfg.Store.URL, cfg.Store.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			workflows: repo.NewWorkflowRepo(pool),
			nodes:     repo.NewNodeRepo(pool),
			close:     pool.Close,
		}, nil
	}
}

// connectPublisher подключается к RabbitMQ. Без брокера API работает
// без событий, поэтому ошибки только логируются.
func connectPublisher(ctx context.Context, url string, logger *slog.Logger) (api.EventPublisher, func()) {
	if url == "" {
		logger.Info("AMQP_URL not set, events disabled")
		return nil, func() {}
	}

	conn, err := mq.NewConnection(url, "graphflow-api", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, events disabled", "error", err)
		return nil, func() {}
	}

	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}

	return mq.NewPublisher(conn, logger), func() { conn.Close() }
}

func main() {
	configFile := flag.String("config", "", "path to graphflow.yaml")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info("starting graphflow-api", "store", cfg.Store.Driver)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer st.close()
	logger.Info("store ready")

	publisher, closePublisher := connectPublisher(ctx, cfg.AMQP.URL, logger)
	defer closePublisher()

	handler := api.NewHandler(api.Config{
		Workflows:  st.workflows,
		Nodes:      st.nodes,
		Registry:   dispatch.DefaultRegistry(),
		Publisher:  publisher,
		Logger:     logger,
		CORSOrigin: cfg.CORS.Origin,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// API маршруты со своей цепочкой middleware
	mux.Handle("/api/", handler.Routes())

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
