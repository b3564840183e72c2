package handlers

import (
	"net/http"

	"supplier-service/internal/database/minio"
	"supplier-service/internal/database/redis"
	"supplier-service/internal/event"
	"supplier-service/internal/utils"
	"supplier-service/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/jmoiron/sqlx"
)

// HealthHandler reports liveness plus per-dependency status so the gateway
// can tell a degraded instance from a dead one.
type HealthHandler struct {
	db        *sqlx.DB
	cache     *redis.Client
	storage   *minio.MinioClient
	publisher *event.StatusPublisher
	pool      *worker.WorkingPool
}

func NewHealthHandler(
	db *sqlx.DB,
	cache *redis.Client,
	storage *minio.MinioClient,
	publisher *event.StatusPublisher,
	pool *worker.WorkingPool,
) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		storage:   storage,
		publisher: publisher,
		pool:      pool,
	}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Check) // GET /health
}

func (h *HealthHandler) Check(c fiber.Ctx) error {
	components := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(c.Context()); err != nil {
			components["postgres"] = "down: " + err.Error()
			healthy = false
		} else {
			components["postgres"] = "up"
		}
	} else {
		components["postgres"] = "not configured"
		healthy = false
	}

	if h.cache != nil {
		if err := h.cache.Ping(c.Context()); err != nil {
			components["redis"] = "down: " + err.Error()
			healthy = false
		} else {
			components["redis"] = "up"
		}
	} else {
		components["redis"] = "not configured"
	}

	if h.storage != nil {
		if err := h.storage.HealthCheck(c.Context()); err != nil {
			components["minio"] = "down: " + err.Error()
			healthy = false
		} else {
			components["minio"] = "up"
		}
	} else {
		components["minio"] = "not configured"
	}

	payload := map[string]any{
		"service":    "supplier-service",
		"components": components,
	}

	if h.publisher != nil {
		status := h.publisher.HealthCheck()
		payload["publisher"] = status
		if !status.IsHealthy {
			components["rabbitmq"] = "down"
			healthy = false
		} else {
			components["rabbitmq"] = "up"
		}
	} else {
		components["rabbitmq"] = "not configured"
	}

	if h.pool != nil {
		payload["queued_jobs"] = h.pool.QueueDepth()
	}

	payload["status"] = "healthy"
	statusCode := http.StatusOK
	if !healthy {
		payload["status"] = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(utils.CreateSuccessResponse(payload))
}
