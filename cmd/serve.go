package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/loader"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/logger"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/middleware/auth"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/middleware/rayid"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/feature/report"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/feature/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/TheNetworkGuy/netbox-zabbix-sync/docs/swagger"
)

// @title NetBox Zabbix Sync API
// @version 1.0
// @description Webhook receiver and run history API for the NetBox to Zabbix synchronization service.
// @host localhost:8080
// @BasePath /

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Starts the HTTP server that receives NetBox webhooks and serves the
run history API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		app, err := newApplication(ctx)
		if err != nil {
			return err
		}
		logg := app.logger
		defer logg.Sync()

		reports, err := app.reportService(ctx)
		if err != nil {
			return err
		}

		// Webhook-triggered syncs go through the same service as full runs,
		// without a run recorder: single results are not a run.
		syncSvc := app.syncService(nil)

		web := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(webhook.NewFeature(webhook.NewHandler(webhook.NewService(syncSvc, logg), logg)))
		mgr.Register(report.NewFeature(reports, report.NewHandler(reports, logg)))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		web.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		web.Use(func(c *fiber.Ctx) error {
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

		// 2.5 Health check and Swagger documentation (Public)
		web.Get("/healthz", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})
		web.Get("/swagger/*", swagger.HandlerDefault)

		// 3. Auth (Protect API)
		web.Use(auth.New(auth.Config{
			ApiKey: app.cfg.Server.ApiKey,
			Exempt: []string{"/healthz"},
		}))

		// 4. Load Features
		if err := mgr.LoadAll(web); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 5. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", app.cfg.Server.Port))
			if err := web.Listen(":" + app.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 6. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = web.Shutdown()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
