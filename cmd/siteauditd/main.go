// Package main runs the website audit HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/site-audit/siteaudit/internal/api"
	"github.com/site-audit/siteaudit/internal/audit"
	"github.com/site-audit/siteaudit/internal/auditcache"
	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/fetch"
	"github.com/site-audit/siteaudit/internal/llm"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	config.LoadEnv(log)
	log.SetLevel(config.GetLogLevel())
	settings := config.Load()

	fetcher, err := fetch.NewChromeFetcher(fetch.ChromeOptions{
		UserAgent: settings.UserAgent,
		ExecPath:  settings.ChromePath,
		PoolSize:  settings.Concurrency,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to start browser")
	}
	defer fetcher.Close()

	var llmClient *llm.Client
	if settings.LLMAPIKey != "" {
		llmClient = llm.New(settings.LLMAPIKey, settings.LLMModel, settings.LLMBaseURL)
		log.Info("LLM summary refinement enabled")
	}

	svc := audit.NewService(audit.Options{
		Fetcher:    fetcher,
		Settings:   settings,
		Cache:      auditcache.New(),
		LLM:        llmClient,
		Logger:     log,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	})

	srv := &http.Server{
		Addr:    ":" + settings.Port,
		Handler: api.NewServer(svc, log).Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("port", settings.Port).Info("Audit service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
