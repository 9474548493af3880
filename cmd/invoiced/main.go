package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"invoice-parser/internal/common"
	"invoice-parser/internal/llm"
	"invoice-parser/internal/pdf"
	"invoice-parser/internal/server"
	"invoice-parser/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment")
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	st, err := store.NewExcelStore(cfg.Store.WorkbookPath, logger)
	if err != nil {
		logger.Error("failed to open invoice store", "path", cfg.Store.WorkbookPath, "error", err)
		os.Exit(1)
	}

	pdfSvc := pdf.NewService(pdf.Config{Pdftoppm: cfg.PDF.Pdftoppm, DPI: cfg.PDF.DPI}, logger)
	llmClient := llm.NewClient(cfg.LLM, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(st, pdfSvc, llmClient, cfg.LLM.APIKey != "", logger).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("starting server", "addr", cfg.Server.Addr, "workbook", cfg.Store.WorkbookPath)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
		}
	}()

	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
