// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/wikipath/wikipath/services/pathfinder/cache"
	"github.com/wikipath/wikipath/services/pathfinder/handlers"
	"github.com/wikipath/wikipath/services/pathfinder/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wikipath HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	s, err := buildStack(false)
	if err != nil {
		return err
	}
	defer s.close()

	logCacheSizes(s)

	handler := handlers.NewSearchHandler(
		s.engine,
		s.client,
		s.captioner,
		s.metrics,
		s.logger.With("component", "http"),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	routes.Setup(router, handler)

	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func logCacheSizes(s *stack) {
	links, err := s.store.Len(cache.KindLinks)
	if err != nil {
		s.logger.Warn("cache size unavailable", "error", err)
		return
	}
	backlinks, _ := s.store.Len(cache.KindBacklinks)
	verdicts, _ := s.store.Len(cache.KindVerdicts)
	s.logger.Info("cache opened",
		"links", links,
		"backlinks", backlinks,
		"verdicts", verdicts,
	)
}
