package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamvault/streamvault/config"
	"github.com/streamvault/streamvault/internal/adapter/ffmpeg"
	HTTPAdapter "github.com/streamvault/streamvault/internal/adapter/http"
	sqlitestore "github.com/streamvault/streamvault/internal/adapter/storage/sqlite"
	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting streamvault on port %d", cfg.Port)

	for _, dir := range []string{cfg.DataDir, cfg.StorageDir, cfg.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error.Printf("failed to create %s: %v", dir, err)
			os.Exit(1)
		}
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to create store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	tool := ffmpeg.NewRunner()
	broadcaster := service.NewBroadcaster()

	recorder := service.NewRecorder(store, store, store, tool, cfg.StorageDir)
	audio := service.NewAudioExtractor(store, store, tool, cfg.StorageDir)
	trimmer := service.NewTrimmer(store, store, store, tool, cfg.StorageDir)
	uploader := service.NewUploader(store, store, tool, cfg.StorageDir, cfg.TempDir, cfg.MaxVideoSize, cfg.MaxAudioSize)
	authSvc := service.NewAuthService(cfg.AdminPasswordHash, cfg.AuthSecret)

	// Tasks left in a transient state by the previous run are dead; their
	// processes died with the process table.
	recorder.Reconcile()
	audio.Reconcile()
	trimmer.Reconcile()

	monitor := service.NewMonitor(store, tool, broadcaster, cfg.CheckInterval)
	monitor.Start()
	defer monitor.Stop()

	scheduler := service.NewScheduler(store, recorder)
	if err := scheduler.Start(); err != nil {
		logger.Error.Printf("failed to start scheduler: %v", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	handlers := HTTPAdapter.NewHandlers(recorder, audio, trimmer, store, store, tool, broadcaster)
	uploadHandlers := HTTPAdapter.NewUploadHandlers(uploader)
	sseHandler := HTTPAdapter.NewSSEHandler(broadcaster)
	hookHandler := HTTPAdapter.NewHookHandler(store, broadcaster)
	server := HTTPAdapter.NewServer(handlers, uploadHandlers, sseHandler, hookHandler, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("http shutdown error: %v", err)
		}
		logger.Info.Printf("shutdown complete")
	}()

	logger.Info.Printf("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error.Printf("server failed: %v", err)
		os.Exit(1)
	}
}
