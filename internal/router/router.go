// Package router wires handlers and middleware into a gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/sndctl/internal/config"
	"github.com/pandeptwidyaop/sndctl/internal/handlers"
	"github.com/pandeptwidyaop/sndctl/internal/middleware"
	"github.com/pandeptwidyaop/sndctl/internal/services"
	"github.com/pandeptwidyaop/sndctl/internal/upgrade"
)

// multipartOverhead allows for form boundaries around an uploaded document.
const multipartOverhead = 64 << 10

func New(cfg *config.Config, macroService *services.MacroService, executorService *services.ExecutorService, sonosService *services.SonosService, auditService *services.AuditService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.SecurityHeaders(cfg.Server.PathPrefix + "/api"))

	prefix := r.Group(cfg.Server.PathPrefix)

	macroHandler := handlers.NewMacroHandler(macroService, executorService, auditService, cfg.Import.MaxSize)
	streamHandler := handlers.NewStreamHandler(executorService)
	sonosHandler := handlers.NewSonosHandler(sonosService, auditService)
	auditHandler := handlers.NewAuditHandler(auditService)
	versionHandler := handlers.NewVersionHandler(upgrade.LatestReleaseURL)

	// Speaker commands share one budget per client.
	limiter := middleware.NewRateLimiter(cfg.Execution.RateLimit, cfg.Execution.GetRateWindow())
	jsonLimit := middleware.DefaultBodyLimit()

	api := prefix.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "macros": len(macroService.List())})
		})
		api.GET("/version", versionHandler.Info)
		api.GET("/version/check", versionHandler.CheckUpdate)
		api.GET("/audit-logs", auditHandler.List)

		m := api.Group("/macro")
		{
			m.GET("", macroHandler.List)
			m.GET("/list", macroHandler.List)
			m.GET("/info", macroHandler.Info)
			m.GET("/search", macroHandler.Search)
			m.GET("/favorites", macroHandler.Favorites)
			m.GET("/get/:name", macroHandler.Get)
			m.POST("/save", jsonLimit, macroHandler.Save)
			m.DELETE("/delete/:name", macroHandler.Delete)
			m.POST("/duplicate/:name", macroHandler.Duplicate)
			m.POST("/reload", macroHandler.Reload)
			m.GET("/export", macroHandler.Export)
			m.POST("/import", middleware.BodySizeLimit(cfg.Import.MaxSize+multipartOverhead), macroHandler.Import)

			m.POST("/execute", limiter.Middleware(), jsonLimit, macroHandler.Execute)
			m.GET("/execute/:name", limiter.Middleware(), macroHandler.ExecuteByName)

			m.GET("/executions", macroHandler.ListExecutions)
			m.GET("/executions/:id", macroHandler.GetExecution)
			m.POST("/executions/:id/cancel", macroHandler.CancelExecution)
			m.GET("/executions/:id/stream", streamHandler.Stream)
			m.GET("/executions/:id/ws", streamHandler.WebSocket)
		}

		s := api.Group("/sonos")
		{
			s.GET("/speakers", sonosHandler.Speakers)
			s.POST("/rediscover", sonosHandler.Rediscover)
			s.POST("/command", limiter.Middleware(), jsonLimit, sonosHandler.Command)
			s.GET("/favorites", sonosHandler.Favorites)
			s.GET("/playlists", sonosHandler.Playlists)
			s.GET("/playlists/:name/tracks", sonosHandler.PlaylistTracks)
			s.GET("/radio-stations", sonosHandler.RadioStations)
			s.GET("/speakers/:speaker/queue", sonosHandler.Queue)
			s.GET("/speakers/:speaker/queue/length", sonosHandler.QueueLength)
			s.GET("/speakers/:speaker/queue/position", sonosHandler.QueuePosition)
			s.GET("/speakers/:speaker/settings/:setting", sonosHandler.Setting)
		}
	}

	// Redirect root to path prefix (only if prefix is not empty)
	if cfg.Server.PathPrefix != "" && cfg.Server.PathPrefix != "/" {
		r.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, cfg.Server.PathPrefix+"/api/health")
		})
	}

	return r
}
