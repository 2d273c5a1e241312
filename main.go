package main

import (
	"context"
	"os"
	"time"

	"layout-builder/config"
	"layout-builder/database"
	"layout-builder/internal/api/builder"
	renderapi "layout-builder/internal/api/render"
	routes "layout-builder/internal/app/http"
	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/migrate"
	"layout-builder/internal/domain/render"
	"layout-builder/internal/domain/samples"
	"layout-builder/internal/domain/site"
	"layout-builder/internal/infra/cache"
	"layout-builder/internal/infra/store"
	"layout-builder/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()
	log := logging.New(os.Stdout, config.LOG_LEVEL, config.LOG_FORMAT)

	if err := database.InitDB(); err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}
	s := store.NewGormStore(database.DB)

	var rc cache.RenderCache = cache.NullCache{}
	if config.REDIS_URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Connect(ctx, config.REDIS_URL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, render cache disabled")
		} else {
			rc = cache.NewRedisCache(client, "layout-builder:", config.RENDER_CACHE_TTL)
		}
	}

	registry := elements.NewRegistry()
	migrator := migrate.New(registry, log)

	renderer := render.New(s, registry, migrator, log)
	content := site.NewSource(database.DB)
	renderer.Pages = content
	renderer.Widgets = content
	if config.RAW_HTML_UNFILTERED {
		renderer.Policy = nil
	}

	bh := builder.NewHandler(s, registry, migrator, samples.NewCatalog(), rc, log)
	bh.FrameworkVersion = config.FRAMEWORK_VERSION
	rh := renderapi.NewHandler(renderer, rc, log)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Render-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, bh, rh)

	log.Info().Str("port", config.PORT).Msg("listening")
	if err := r.Run(":" + config.PORT); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
