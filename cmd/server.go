package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/asyncx"
	"github.com/Abraxas-365/mailrelay/pkg/config"
	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/relay/relayapi"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const healthCheckTimeout = 2 * time.Second

func serve(ctx context.Context, cfg *config.Config) error {
	logx.Infof("Starting %s %s...", cfg.Server.AppName, cfg.Server.Version)

	container, err := NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Cleanup()

	app := newApp(container)

	errCh := make(chan error, 1)
	go func() {
		logx.Infof("Server listening on port %s", cfg.Server.Port)
		logx.Infof("Relay endpoint: POST http://localhost:%s%s", cfg.Server.Port, relayapi.Path)
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	return gracefulShutdown(app, cfg.Server.ShutdownTimeout, errCh)
}

func newApp(container *Container) *fiber.App {
	cfg := container.Config.Server

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(cfg.Debug),
		BodyLimit:             cfg.BodyLimit,
		IdleTimeout:           cfg.IdleTimeout,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))

	// The relay endpoint answers its own CORS, open to every origin.
	app.Use(cors.New(cors.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.TrimRight(c.Path(), "/") == relayapi.Path
		},
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "authorization, content-type, x-request-id",
		AllowMethods:  "GET, OPTIONS",
		ExposeHeaders: fiber.HeaderXRequestID,
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Get("/health", healthCheckHandler(container))
	app.Get("/", infoHandler(cfg))

	container.RelayHandlers.RegisterRoutes(app)
	logx.Info("Relay routes registered")

	app.Use(notFoundHandler)
	return app
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler pings every backing service concurrently. Any failed
// check marks the service degraded.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names := []string{"db"}
		checks := []func(context.Context) (string, error){
			withTimeout(func(ctx context.Context) (string, error) {
				return "healthy", container.DB.PingContext(ctx)
			}),
		}
		if container.Redis != nil {
			names = append(names, "redis")
			checks = append(checks, withTimeout(func(ctx context.Context) (string, error) {
				return "healthy", container.Redis.Ping(ctx).Err()
			}))
		}

		health := fiber.Map{
			"status":  "healthy",
			"service": container.Config.Server.AppName,
			"version": container.Config.Server.Version,
			"mailer":  mailerState(container),
		}

		for i, res := range asyncx.AllSettled(c.UserContext(), checks...) {
			if res.OK() {
				health[names[i]] = res.Value
				continue
			}
			health[names[i]] = "unhealthy"
			health[names[i]+"_error"] = res.Err.Error()
			health["status"] = "degraded"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func withTimeout(p func(context.Context) (string, error)) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return asyncx.WithTimeout(ctx, healthCheckTimeout, p)
	}
}

func mailerState(container *Container) string {
	if !container.RelayService.Configured() {
		return "not configured"
	}
	return container.Config.Notifx.Provider
}

func infoHandler(cfg config.ServerConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": cfg.AppName,
			"version": cfg.Version,
			"endpoints": fiber.Map{
				"send_email": "POST " + relayapi.Path,
				"health":     "GET /health",
			},
		})
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(errx.HTTPErrorResponse{
		Code:       "NOT_FOUND",
		Message:    "The requested endpoint does not exist",
		Type:       string(errx.TypeNotFound),
		StatusCode: fiber.StatusNotFound,
		RequestID:  c.GetRespHeader(fiber.HeaderXRequestID),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler renders errors that escape the handlers. The relay route
// renders its own failures; this covers everything else.
func globalErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := c.GetRespHeader(fiber.HeaderXRequestID)

		logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": requestID,
		}).WithError(err).Error("Request error")

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(errx.HTTPErrorResponse{
				Code:       "FIBER_ERROR",
				Message:    fe.Message,
				Type:       string(errx.TypeInternal),
				StatusCode: fe.Code,
				RequestID:  requestID,
			})
		}

		e := errx.From(err)
		resp := e.ToHTTPResponse(requestID)
		if debug && e.Err != nil {
			if resp.Details == nil {
				resp.Details = map[string]any{}
			}
			resp.Details["underlying_error"] = e.Err.Error()
		}
		return c.Status(e.HTTPStatus).JSON(resp)
	}
}

// ============================================================================
// Shutdown
// ============================================================================

func gracefulShutdown(app *fiber.App, timeout time.Duration, errCh <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		logx.Infof("Received signal: %v", sig)
	}

	logx.Info("Shutting down gracefully...")
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
		return err
	}
	logx.Info("Server exited")
	return nil
}
