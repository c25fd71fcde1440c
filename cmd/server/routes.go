// Copyright 2025 Jay Cherian
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main contains the API route definitions for the server.
//
// Routes:
//   - POST /api/v1/cinematify:         converts one passage of prose.
//   - POST /api/v1/cinematify/offline: converts with the deterministic
//     engine only, never touching a provider.
//   - POST /api/v1/cinematify/book:    segments a full book into chapters
//     and converts each one.
//   - GET  /api/v1/stats:              provider and breaker status.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/go-cinematify/internal/core/workflow"
)

// cinematifyRequest is the JSON body accepted by both conversion routes.
type cinematifyRequest struct {
	Text    string `json:"text" binding:"required"`
	Offline bool   `json:"offline"`
}

// CinematifyRouter sets up the conversion routes.
func CinematifyRouter(r *gin.RouterGroup) {
	cine := r.Group("/cinematify")
	{
		cine.POST("", func(c *gin.Context) {
			var req cinematifyRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			opts := workflow.Options{AIEnabled: !req.Offline && state.aiAvailable()}
			result := state.cinematifier.CinematifyText(c.Request.Context(), req.Text, opts)
			c.JSON(http.StatusOK, result)
		})

		cine.POST("/offline", func(c *gin.Context) {
			var req cinematifyRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			result := state.cinematifier.CinematifyOffline(c.Request.Context(), req.Text, workflow.Options{})
			c.JSON(http.StatusOK, result)
		})

		cine.POST("/book", func(c *gin.Context) {
			var req cinematifyRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			opts := workflow.Options{AIEnabled: !req.Offline && state.aiAvailable()}
			chapters := state.cinematifier.CinematifyBook(c.Request.Context(), req.Text, opts)
			c.JSON(http.StatusOK, chapters)
		})
	}
}

// Dashboard configures the statistics routes: which provider is active and
// the current state of its circuit breaker.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			out := gin.H{
				"provider":     state.providerName,
				"ai_available": state.aiAvailable(),
			}
			if state.breaker != nil {
				out["breaker_state"] = state.breaker.State().String()
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
