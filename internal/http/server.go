package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"repairdesk/internal/config"
	casehttp "repairdesk/internal/http/cases"
	"repairdesk/internal/http/common"
	workflowhttp "repairdesk/internal/http/workflows"
	"repairdesk/internal/usecase"
)

type Server struct {
	cfg     config.Config
	r       *gin.Engine
	logger  *zap.Logger
	monitor *usecase.SLAMonitor
}

type ServerDeps struct {
	Cases    *usecase.CaseService
	Workflow *usecase.WorkflowService
	Monitor  *usecase.SLAMonitor
	Logger   *zap.Logger
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Logger != nil {
		r.Use(requestLogger(deps.Logger))
	}

	s := &Server{
		cfg:     cfg,
		r:       r,
		logger:  deps.Logger,
		monitor: deps.Monitor,
	}
	s.routes(deps)
	return s
}

func (s *Server) Run() error {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info("repairdesk listening", zap.String("addr", addr))
	return s.r.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) routes(deps ServerDeps) {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	caseHandler := casehttp.NewHandler(deps.Cases, deps.Workflow)
	workflowHandler := workflowhttp.NewHandler(deps.Workflow)

	v1 := s.r.Group("/v1")
	{
		v1.POST("/cases", caseHandler.HandleCreateCase)
		v1.GET("/cases", caseHandler.HandleListCases)
		v1.GET("/cases/:id", caseHandler.HandleGetCase)
		v1.POST("/cases/:id/workflow/steps/:step_id/complete", caseHandler.HandleCompleteStep)
		v1.POST("/cases/:id/workflow/cancel", caseHandler.HandleCancelWorkflow)
		v1.GET("/cases/:id/workflow/history", caseHandler.HandleWorkflowHistory)

		v1.POST("/workflow-definitions", workflowHandler.HandleCreateDefinition)
		v1.GET("/workflow-definitions/:id", workflowHandler.HandleGetDefinition)
		v1.POST("/workflow-configurations", workflowHandler.HandleCreateConfiguration)
		v1.GET("/workflow-configurations", workflowHandler.HandleListConfigurations)

		v1.POST("/sla/scan", s.handleScan)
	}
}

// handleScan triggers one monitor pass immediately. The recurring schedule
// lives in the worker binary; this endpoint exists for operations.
func (s *Server) handleScan(c *gin.Context) {
	if s.monitor == nil {
		common.WriteErrorCode(c, http.StatusServiceUnavailable, "UNAVAILABLE", "sla monitor not configured")
		return
	}
	result, err := s.monitor.Scan(c.Request.Context(), time.Now())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	failures := make([]gin.H, 0, len(result.Failures))
	for _, failure := range result.Failures {
		failures = append(failures, gin.H{"sla_id": failure.SLAID, "error": failure.Err.Error()})
	}
	c.JSON(http.StatusOK, gin.H{
		"scanned":  result.Scanned,
		"events":   len(result.Events),
		"failures": failures,
	})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
