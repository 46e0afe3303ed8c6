package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const readinessTimeout = 2 * time.Second

// Server wires the HTTP routes to persistence and the inbound dispatcher.
type Server struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publishing  *services.Publishing
	dispatcher  InboundDispatcher
	validate    *validator.Validate
}

// NewServer builds the server. A nil publishing service leaves out the
// /flows admin routes.
func NewServer(
	logger *slog.Logger,
	persistence persistence.Persistence,
	publishing *services.Publishing,
	dispatcher InboundDispatcher,
) *Server {
	return &Server{
		logger:      logger,
		persistence: persistence,
		publishing:  publishing,
		dispatcher:  dispatcher,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Server) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
			defer cancel()

			return s.persistence.HealthCheck(ctx) == nil
		},
	}))

	webhooks := NewWebhookHandlers(s.logger, s.persistence.ChannelRepository(), s.dispatcher, s.validate)
	app.Get("/webhook/:channelId", webhooks.Verify)
	app.Post("/webhook/:channelId", webhooks.Receive)

	if s.publishing != nil {
		flows := NewFlowHandlers(s.persistence.FlowRepository(), s.publishing)

		f := app.Group("/flows")
		f.Get("/", flows.ListFlows)
		f.Get("/:id", flows.GetFlow)
		f.Post("/:id/validate", flows.ValidateFlow)
		f.Post("/:id/publish", flows.PublishFlow)
		f.Post("/:id/unpublish", flows.UnpublishFlow)
	}

	return app
}

func (s *Server) Start(addr string) error {
	return s.App().Listen(addr)
}
