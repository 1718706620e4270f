package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/dto"
	"github.com/nextelBIS/minubo-event-ingest/internal/metrics"
	"github.com/nextelBIS/minubo-event-ingest/internal/service"
	"github.com/nextelBIS/minubo-event-ingest/internal/validation"
)

// maxBodyBytes caps inbound payloads; tracking events are small.
const maxBodyBytes = 1 << 20

type Handler struct {
	eventService service.EventServicer
	router       *gin.Engine
	log          *zap.Logger
}

func NewHandler(eventService service.EventServicer, log *zap.Logger) *Handler {
	h := &Handler{
		eventService: eventService,
		router:       gin.Default(),
		log:          log,
	}

	h.router.Use(requestID())
	h.router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Authorization", "X-Api-Key"},
	}))

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/events", h.ingestEvent)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// requestID tags each request for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ingestEvent handles POST /events. The body is handed to the service raw:
// validation owns the payload contract, including the malformed-JSON case.
// Rejections map to 400, persistence and credential failures to 500, and a
// stored event to 200 echoing the event ID.
func (h *Handler) ingestEvent(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.log.Warn("Failed to read request body",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		metrics.EventsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "failed to read request body",
		})
		return
	}

	eventID, err := h.eventService.ProcessEvent(c.Request.Context(), raw)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			h.log.Warn("Event rejected",
				zap.String("request_id", c.GetString("request_id")),
				zap.String("kind", string(verr.Kind)),
				zap.Strings("fields", verr.Fields))
			metrics.EventsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: verr.Error(),
			})
			return
		}

		h.log.Error("Failed to process event",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		metrics.EventsTotal.WithLabelValues("failed").Inc()
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	metrics.EventsTotal.WithLabelValues("accepted").Inc()

	c.JSON(http.StatusOK, dto.EventProcessedResponse{
		Message: "Event processed successfully",
		EventID: eventID,
	})
}
