package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"radar/internal/dispatcher"
	"radar/internal/model"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
)

type Runner interface {
	Run(ctx context.Context) dispatcher.Outcome
}

type History interface {
	Recent(ctx context.Context, limit uint64) ([]model.Record, error)
	Ping(ctx context.Context) error
}

// ScheduleInfo exposes scheduler state to the health endpoint.
type ScheduleInfo interface {
	IsRunning() bool
	NextRun() time.Time
	LastRun() time.Time
}

type Handlers struct {
	runner    Runner
	history   History
	scheduler ScheduleInfo
	log       logrus.FieldLogger
}

func NewHandlers(runner Runner, history History, scheduler ScheduleInfo, log logrus.FieldLogger) *Handlers {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Handlers{
		runner:    runner,
		history:   history,
		scheduler: scheduler,
		log:       log,
	}
}

type recordResponse struct {
	Title  string    `json:"titulo"`
	Link   string    `json:"link"`
	SentAt time.Time `json:"data_envio"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Scheduler map[string]string `json:"scheduler"`
}

// Run triggers one pipeline run. The request body is ignored.
func (h *Handlers) Run(c *gin.Context) {
	outcome := h.runner.Run(c.Request.Context())

	statusCode := http.StatusOK
	if outcome.Failed() {
		statusCode = http.StatusInternalServerError
	}

	c.JSON(statusCode, outcome)
}

// History lists the most recently sent articles.
func (h *Handlers) History(c *gin.Context) {
	limit := uint64(defaultHistoryLimit)

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 || parsed > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = parsed
	}

	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("history query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]recordResponse, 0, len(records))
	for _, r := range records {
		response = append(response, recordResponse{Title: r.Title, Link: r.Link, SentAt: r.SentAt})
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck reports database reachability and scheduler state.
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := healthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Scheduler: map[string]string{"state": "stopped"},
	}

	if err := h.history.Ping(c.Request.Context()); err != nil {
		response.Status = "error"
		response.Database = "error"
		h.log.WithError(err).Error("database health check failed")
	}

	if h.scheduler != nil && h.scheduler.IsRunning() {
		response.Scheduler["state"] = "running"
		response.Scheduler["next_run"] = h.scheduler.NextRun().Format(time.RFC3339)
		if last := h.scheduler.LastRun(); !last.IsZero() {
			response.Scheduler["last_run"] = last.Format(time.RFC3339)
		}
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
