// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes registers the HTTP endpoints of the wikipath service.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wikipath/wikipath/services/pathfinder/handlers"
)

// Setup registers all routes on the given router.
//
// Endpoints:
//   - POST /api/shortest-path  : SSE search stream
//   - GET  /api/search?q=      : title suggestions
//   - GET  /healthz            : liveness
//   - GET  /metrics            : Prometheus metrics
func Setup(router *gin.Engine, search *handlers.SearchHandler) {
	api := router.Group("/api")
	{
		api.POST("/shortest-path", search.ShortestPath)
		api.GET("/search", search.Suggest)
	}

	router.GET("/healthz", search.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
