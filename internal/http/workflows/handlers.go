package workflows

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairdesk/internal/domain/workflow"
	"repairdesk/internal/http/common"
	"repairdesk/internal/usecase"
)

type Handler struct {
	Workflow *usecase.WorkflowService
}

func NewHandler(wf *usecase.WorkflowService) *Handler {
	return &Handler{Workflow: wf}
}

type stepRequest struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	Type         string `json:"type"`
	Sequence     int    `json:"sequence"`
	TimeoutHours int    `json:"timeout_hours"`
}

func (h *Handler) HandleCreateDefinition(c *gin.Context) {
	var req struct {
		Name     string        `json:"name"`
		Version  int           `json:"version"`
		IsActive *bool         `json:"is_active"`
		Steps    []stepRequest `json:"steps"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	def := workflow.Definition{
		Name:     req.Name,
		Version:  req.Version,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	for _, step := range req.Steps {
		stepType := workflow.StepType(step.Type)
		if stepType == "" {
			stepType = workflow.StepTypeTask
		}
		def.Steps = append(def.Steps, workflow.Step{
			Name:         step.Name,
			Code:         step.Code,
			Type:         stepType,
			Sequence:     step.Sequence,
			TimeoutHours: step.TimeoutHours,
		})
	}
	created, err := h.Workflow.CreateDefinition(c.Request.Context(), def)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"definition": common.ToDefinitionResponse(created)})
}

func (h *Handler) HandleGetDefinition(c *gin.Context) {
	definitionID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	def, err := h.Workflow.GetDefinition(c.Request.Context(), definitionID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"definition": common.ToDefinitionResponse(def)})
}

func (h *Handler) HandleCreateConfiguration(c *gin.Context) {
	var req struct {
		DefinitionID string  `json:"definition_id"`
		DeviceTypeID *string `json:"device_type_id"`
		CustomerTier *string `json:"customer_tier"`
		ServiceType  string  `json:"service_type"`
		IsActive     *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	created, err := h.Workflow.CreateConfiguration(c.Request.Context(), workflow.Configuration{
		DefinitionID: req.DefinitionID,
		DeviceTypeID: req.DeviceTypeID,
		CustomerTier: req.CustomerTier,
		ServiceType:  req.ServiceType,
		IsActive:     req.IsActive == nil || *req.IsActive,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"configuration": common.ToConfigurationResponse(created)})
}

func (h *Handler) HandleListConfigurations(c *gin.Context) {
	items, err := h.Workflow.ListConfigurations(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.ConfigurationResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, common.ToConfigurationResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}
