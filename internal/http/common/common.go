package common

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/sla"
	"repairdesk/internal/domain/workflow"
	"repairdesk/internal/usecase"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CaseResponse struct {
	ID                 string            `json:"id"`
	CaseNumber         string            `json:"case_number"`
	CustomerID         string            `json:"customer_id"`
	DeviceID           string            `json:"device_id"`
	ServiceType        string            `json:"service_type"`
	Priority           string            `json:"priority"`
	Status             string            `json:"status"`
	WorkflowInstanceID *string           `json:"workflow_instance_id,omitempty"`
	SLAID              *string           `json:"sla_id,omitempty"`
	CreatedAt          string            `json:"created_at"`
	Instance           *InstanceResponse `json:"instance,omitempty"`
	SLA                *SLAResponse      `json:"sla,omitempty"`
}

type InstanceResponse struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition_id"`
	CaseID        string         `json:"case_id"`
	CurrentStepID string         `json:"current_step_id"`
	Status        string         `json:"status"`
	Variables     map[string]any `json:"variables,omitempty"`
	StartedAt     string         `json:"started_at"`
	CompletedAt   *string        `json:"completed_at,omitempty"`
}

type SLAResponse struct {
	ID              string `json:"id"`
	CaseID          string `json:"case_id"`
	Priority        string `json:"priority"`
	DueDate         string `json:"due_date"`
	IsBreached      bool   `json:"is_breached"`
	WarningSent     bool   `json:"warning_sent"`
	EscalationLevel int    `json:"escalation_level"`
}

type StepResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	Type         string `json:"type"`
	Sequence     int    `json:"sequence"`
	TimeoutHours int    `json:"timeout_hours,omitempty"`
}

type DefinitionResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Version   int            `json:"version"`
	IsActive  bool           `json:"is_active"`
	Steps     []StepResponse `json:"steps"`
	CreatedAt string         `json:"created_at"`
}

type ConfigurationResponse struct {
	ID           int64   `json:"id"`
	DefinitionID string  `json:"definition_id"`
	DeviceTypeID *string `json:"device_type_id,omitempty"`
	CustomerTier *string `json:"customer_tier,omitempty"`
	ServiceType  string  `json:"service_type"`
	IsActive     bool    `json:"is_active"`
}

type HistoryResponse struct {
	ID         string         `json:"id"`
	InstanceID string         `json:"instance_id"`
	FromStepID *string        `json:"from_step_id"`
	ToStepID   *string        `json:"to_step_id"`
	Action     string         `json:"action"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

func ParseUUIDParam(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", name+" is required")
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", name+" must be a UUID")
		return "", false
	}
	return value, true
}

func ToCaseResponse(c repair.Case) CaseResponse {
	return CaseResponse{
		ID:                 c.ID,
		CaseNumber:         c.CaseNumber,
		CustomerID:         c.CustomerID,
		DeviceID:           c.DeviceID,
		ServiceType:        c.ServiceType,
		Priority:           string(c.Priority),
		Status:             string(c.Status),
		WorkflowInstanceID: c.WorkflowInstanceID,
		SLAID:              c.SLAID,
		CreatedAt:          c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func ToCaseViewResponse(view usecase.CaseView) CaseResponse {
	resp := ToCaseResponse(view.Case)
	if view.Instance != nil {
		instance := ToInstanceResponse(*view.Instance)
		resp.Instance = &instance
	}
	if view.SLA != nil {
		record := ToSLAResponse(*view.SLA)
		resp.SLA = &record
	}
	return resp
}

func ToInstanceResponse(inst workflow.Instance) InstanceResponse {
	resp := InstanceResponse{
		ID:            inst.ID,
		DefinitionID:  inst.DefinitionID,
		CaseID:        inst.CaseID,
		CurrentStepID: inst.CurrentStepID,
		Status:        string(inst.Status),
		Variables:     inst.Variables,
		StartedAt:     inst.StartedAt.UTC().Format(time.RFC3339Nano),
	}
	if inst.CompletedAt != nil {
		formatted := inst.CompletedAt.UTC().Format(time.RFC3339Nano)
		resp.CompletedAt = &formatted
	}
	return resp
}

func ToSLAResponse(record sla.Record) SLAResponse {
	return SLAResponse{
		ID:              record.ID,
		CaseID:          record.CaseID,
		Priority:        string(record.Priority),
		DueDate:         record.DueDate.UTC().Format(time.RFC3339Nano),
		IsBreached:      record.IsBreached,
		WarningSent:     record.WarningSent,
		EscalationLevel: record.EscalationLevel,
	}
}

func ToDefinitionResponse(def workflow.Definition) DefinitionResponse {
	steps := make([]StepResponse, 0, len(def.Steps))
	for _, step := range def.Steps {
		steps = append(steps, StepResponse{
			ID:           step.ID,
			Name:         step.Name,
			Code:         step.Code,
			Type:         string(step.Type),
			Sequence:     step.Sequence,
			TimeoutHours: step.TimeoutHours,
		})
	}
	return DefinitionResponse{
		ID:        def.ID,
		Name:      def.Name,
		Version:   def.Version,
		IsActive:  def.IsActive,
		Steps:     steps,
		CreatedAt: def.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func ToConfigurationResponse(cfg workflow.Configuration) ConfigurationResponse {
	return ConfigurationResponse{
		ID:           cfg.ID,
		DefinitionID: cfg.DefinitionID,
		DeviceTypeID: cfg.DeviceTypeID,
		CustomerTier: cfg.CustomerTier,
		ServiceType:  cfg.ServiceType,
		IsActive:     cfg.IsActive,
	}
}

func ToHistoryResponse(entry workflow.HistoryEntry) HistoryResponse {
	return HistoryResponse{
		ID:         entry.ID,
		InstanceID: entry.InstanceID,
		FromStepID: entry.FromStepID,
		ToStepID:   entry.ToStepID,
		Action:     string(entry.Action),
		Metadata:   entry.Metadata,
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repair.ErrInvalidArgument):
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid argument")
	case errors.Is(err, repair.ErrNotFound):
		WriteErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, usecase.ErrNoWorkflowAttached):
		WriteErrorCode(c, http.StatusNotFound, "NO_WORKFLOW", "case has no workflow attached")
	case errors.Is(err, workflow.ErrStepMismatch):
		WriteErrorCode(c, http.StatusConflict, "STEP_MISMATCH", "step is not the instance's current step")
	case errors.Is(err, workflow.ErrUnknownStep):
		WriteErrorCode(c, http.StatusNotFound, "UNKNOWN_STEP", "step does not exist in definition")
	case errors.Is(err, workflow.ErrInstanceTerminal):
		WriteErrorCode(c, http.StatusConflict, "INSTANCE_TERMINAL", "instance is in a terminal state")
	case errors.Is(err, repair.ErrConflict):
		WriteErrorCode(c, http.StatusConflict, "CONFLICT", "conflict")
	default:
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func WriteErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}
