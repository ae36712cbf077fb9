package controllers

import (
	"net/http"

	"Showdown/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initializeRoutes() {
	secret := s.Config.APISecret

	s.Router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.Router.Group("/api/v1")
	{
		// Run routes
		v1.POST("/runs", middlewares.OptionalAuthMiddleware(secret), s.CreateRun)
		v1.GET("/runs", middlewares.TokenAuthMiddleware(secret), s.GetMyRuns)
		v1.GET("/runs/:id", middlewares.TokenAuthMiddleware(secret), s.GetRun)
		v1.POST("/runs/:id/picks", middlewares.PickRateLimitMiddleware(), s.SubmitPick)
		v1.GET("/runs/:id/result/:slug", s.GetRunResult)
		v1.PATCH("/runs/:id/result-image", s.UpdateRunResultImage)
		v1.POST("/runs/:id/result-image", s.UploadRunResultImage)

		// Pool routes
		v1.GET("/pools/:slug/leaderboard", s.GetPoolLeaderboard)
	}
}
