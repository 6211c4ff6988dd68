package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/danmuck/carrierctl/internal/config"
	"github.com/danmuck/carrierctl/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to carrierd TOML config")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "carrierd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	logger := observability.InitLogger("carrierd", cfg.LogLevel)

	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware("carrierd"))
	if len(cfg.Serve.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.Serve.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	svc := newService(cfg, logger)
	svc.register(r)

	logger.Info().Str("addr", cfg.Serve.Addr).Msg("carrierd_listening")
	if err := r.Run(cfg.Serve.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "carrierd: %v\n", err)
		os.Exit(1)
	}
}
