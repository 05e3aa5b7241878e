package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/config"
	httptransport "github.com/example/availability-scheduler/internal/http"
	"github.com/example/availability-scheduler/internal/persistence/sqlite"
	"github.com/example/availability-scheduler/internal/recurrence"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now
	policy := cfg.Policy()
	expander := recurrence.NewEngine(cfg.RecurrenceConfig())

	availabilityService := application.NewAvailabilityServiceWithLogger(storage, policy, expander, idGenerator, now, logger)
	schedulingService := application.NewSchedulingServiceWithLogger(storage, storage, policy, cfg.SlotSearchConfig(), logger)
	meetingService := application.NewMeetingRequestServiceWithLogger(storage, schedulingService, idGenerator, now, logger)
	eventService := application.NewEventServiceWithLogger(storage, expander, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Availability:    httptransport.NewAvailabilityHandler(availabilityService, logger),
		Scheduling:      httptransport.NewSchedulingHandler(schedulingService, logger),
		Events:          httptransport.NewEventHandler(eventService, logger),
		MeetingRequests: httptransport.NewMeetingRequestHandler(meetingService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.PrincipalFromHeaders(logger),
		},
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
