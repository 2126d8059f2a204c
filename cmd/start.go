package cmd

import (
	"log"

	"geomancer/core/loader"
	"geomancer/core/logger"
	"geomancer/core/metrics"
	"geomancer/core/middleware/auth"
	"geomancer/core/middleware/rayid"
	"geomancer/core/server"

	"geomancer/feature/catalog"
	"geomancer/feature/geomance"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "geomancer/docs/swagger"
)

// @title Geomancer API
// @version 1.0
// @description Appends public data to spreadsheets by geography.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the geomancer API server",
	Long:  `Starts the HTTP server and initializes all enabled features. Jobs are run by the worker command.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := a.log
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		svc, _, err := a.jobService(ctx)
		if err != nil {
			logg.Fatal("Failed to initialize job service", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             a.cfg.Server.BodyLimit(),
		})

		mgr := loader.NewManager(logg)
		mgr.Register(geomance.NewFeature(svc))
		mgr.Register(catalog.NewFeature(catalog.NewService(a.builder, logg.Named("catalog"))))

		// RayID must be first to trace everything.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

		// Download locators are handed to browsers without the API key.
		app.Use(auth.New(auth.Config{
			ApiKey:         a.cfg.Server.ApiKey,
			PublicPrefixes: []string{server.DownloadPath, "/swagger", "/metrics"},
		}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		<-ctx.Done()
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
