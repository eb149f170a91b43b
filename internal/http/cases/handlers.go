package cases

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"repairdesk/internal/http/common"
	"repairdesk/internal/usecase"
)

type Handler struct {
	Service  *usecase.CaseService
	Workflow *usecase.WorkflowService
}

func NewHandler(service *usecase.CaseService, wf *usecase.WorkflowService) *Handler {
	return &Handler{Service: service, Workflow: wf}
}

func (h *Handler) HandleCreateCase(c *gin.Context) {
	var req struct {
		CaseNumber  string `json:"case_number"`
		CustomerID  string `json:"customer_id"`
		DeviceID    string `json:"device_id"`
		ServiceType string `json:"service_type"`
		Priority    string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	result, err := h.Service.CreateCase(c.Request.Context(), usecase.CreateCaseInput{
		CaseNumber:  req.CaseNumber,
		CustomerID:  req.CustomerID,
		DeviceID:    req.DeviceID,
		ServiceType: req.ServiceType,
		Priority:    req.Priority,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	payload := gin.H{
		"case": common.ToCaseResponse(result.Case),
		"sla":  common.ToSLAResponse(result.SLA),
	}
	if result.Instance != nil {
		payload["instance"] = common.ToInstanceResponse(*result.Instance)
	}
	if result.Warning != "" {
		payload["warning"] = result.Warning
	}
	c.JSON(http.StatusCreated, payload)
}

func (h *Handler) HandleGetCase(c *gin.Context) {
	caseID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.Service.GetCase(c.Request.Context(), caseID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"case": common.ToCaseViewResponse(view)})
}

func (h *Handler) HandleListCases(c *gin.Context) {
	filter := usecase.CaseListFilter{
		Status:   strings.TrimSpace(c.Query("status")),
		Priority: strings.TrimSpace(c.Query("priority")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	items, err := h.Service.ListCases(c.Request.Context(), filter)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.CaseResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, common.ToCaseResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

func (h *Handler) HandleCompleteStep(c *gin.Context) {
	caseID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	stepID, ok := common.ParseUUIDParam(c, "step_id")
	if !ok {
		return
	}
	var req struct {
		Result map[string]any `json:"result"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
	}
	instance, err := h.instanceForCase(c, caseID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	updated, err := h.Workflow.CompleteStep(c.Request.Context(), instance, stepID, req.Result)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instance": common.ToInstanceResponse(updated)})
}

func (h *Handler) HandleCancelWorkflow(c *gin.Context) {
	caseID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
	}
	instance, err := h.instanceForCase(c, caseID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	if err := h.Workflow.Cancel(c.Request.Context(), instance, req.Reason); err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) HandleWorkflowHistory(c *gin.Context) {
	caseID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	instance, err := h.instanceForCase(c, caseID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	entries, err := h.Workflow.History(c.Request.Context(), instance)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, common.ToHistoryResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"history": resp})
}

// instanceForCase resolves the case's attached workflow instance ID.
func (h *Handler) instanceForCase(c *gin.Context, caseID string) (string, error) {
	view, err := h.Service.GetCase(c.Request.Context(), caseID)
	if err != nil {
		return "", err
	}
	if view.Case.WorkflowInstanceID == nil {
		return "", usecase.ErrNoWorkflowAttached
	}
	return *view.Case.WorkflowInstanceID, nil
}
