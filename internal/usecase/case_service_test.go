package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/workflow"
)

func strPtr(s string) *string { return &s }

func newCaseFixture(t *testing.T) (*memStore, *CaseService) {
	t.Helper()
	store := newMemStore()
	store.seedDevice("device-1", "phone")
	store.seedCustomer("customer-1", "gold")
	wf := newWorkflowService(store)
	svc := NewCaseService(store, wf)
	svc.Clock = testClock
	return store, svc
}

func validInput() CreateCaseInput {
	return CreateCaseInput{
		CaseNumber:  "RC-1001",
		CustomerID:  "customer-1",
		DeviceID:    "device-1",
		ServiceType: "repair",
		Priority:    "urgent",
	}
}

func TestCreateCaseStartsWorkflowAndSLA(t *testing.T) {
	store, svc := newCaseFixture(t)
	def := seedThreeStepDefinition(store)
	store.seedConfiguration(workflow.Configuration{
		DefinitionID: def.ID,
		DeviceTypeID: strPtr("phone"),
		ServiceType:  "repair",
		IsActive:     true,
	})

	result, err := svc.CreateCase(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if result.Warning != "" {
		t.Fatalf("warning = %q, want none", result.Warning)
	}
	if result.Instance == nil {
		t.Fatal("case with a matching configuration must get a workflow instance")
	}
	if result.Instance.CurrentStepID != def.Steps[0].ID {
		t.Fatalf("instance step = %s, want first step", result.Instance.CurrentStepID)
	}
	if result.Case.WorkflowInstanceID == nil || *result.Case.WorkflowInstanceID != result.Instance.ID {
		t.Fatal("case must reference its workflow instance")
	}

	// urgent priority: due exactly 4h after creation.
	want := testClock().Add(4 * time.Hour)
	if !result.SLA.DueDate.Equal(want) {
		t.Fatalf("sla due = %v, want %v", result.SLA.DueDate, want)
	}
	if result.Case.SLAID == nil || *result.Case.SLAID != result.SLA.ID {
		t.Fatal("case must reference its sla record")
	}
}

func TestCreateCaseNoConfigurationSoftPath(t *testing.T) {
	_, svc := newCaseFixture(t)

	result, err := svc.CreateCase(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if result.Warning != WarningNoConfiguration {
		t.Fatalf("warning = %q, want %q", result.Warning, WarningNoConfiguration)
	}
	if result.Instance != nil {
		t.Fatal("no configuration: no instance may be attached")
	}
	// The SLA is still created; deadlines do not depend on workflow.
	if result.SLA.ID == "" {
		t.Fatal("sla record must exist even without a workflow")
	}
}

func TestCreateCaseEmptyDefinitionSoftPath(t *testing.T) {
	store, svc := newCaseFixture(t)
	def := store.seedDefinition(workflow.Definition{Name: "empty", Version: 1, IsActive: true})
	store.seedConfiguration(workflow.Configuration{
		DefinitionID: def.ID,
		ServiceType:  "repair",
		IsActive:     true,
	})

	result, err := svc.CreateCase(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if result.Warning != WarningNoSteps {
		t.Fatalf("warning = %q, want %q", result.Warning, WarningNoSteps)
	}
	if result.Instance != nil {
		t.Fatal("definition without steps: no instance may be attached")
	}
}

func TestCreateCaseRollsBackOnHardFailure(t *testing.T) {
	store, svc := newCaseFixture(t)
	store.failSLACreate = errors.New("disk on fire")

	_, err := svc.CreateCase(context.Background(), validInput())
	if err == nil {
		t.Fatal("CreateCase must fail when the sla insert fails")
	}
	if len(store.cases) != 0 {
		t.Fatal("failed creation must leave no case row behind")
	}
	if len(store.instances) != 0 || len(store.history) != 0 {
		t.Fatal("failed creation must leave no workflow state behind")
	}
}

func TestCreateCaseValidation(t *testing.T) {
	_, svc := newCaseFixture(t)

	tests := []struct {
		name   string
		mutate func(*CreateCaseInput)
	}{
		{"missing case number", func(in *CreateCaseInput) { in.CaseNumber = " " }},
		{"missing customer", func(in *CreateCaseInput) { in.CustomerID = "" }},
		{"missing device", func(in *CreateCaseInput) { in.DeviceID = "" }},
		{"missing service type", func(in *CreateCaseInput) { in.ServiceType = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.CreateCase(context.Background(), in)
			if !errors.Is(err, repair.ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestCreateCaseUnknownPriorityDefaultsToMedium(t *testing.T) {
	_, svc := newCaseFixture(t)
	in := validInput()
	in.Priority = "catastrophic"

	result, err := svc.CreateCase(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if result.Case.Priority != repair.PriorityMedium {
		t.Fatalf("priority = %s, want medium fallback", result.Case.Priority)
	}
	want := testClock().Add(72 * time.Hour)
	if !result.SLA.DueDate.Equal(want) {
		t.Fatalf("sla due = %v, want medium allowance %v", result.SLA.DueDate, want)
	}
}

func TestCreateCaseDuplicateNumber(t *testing.T) {
	_, svc := newCaseFixture(t)
	if _, err := svc.CreateCase(context.Background(), validInput()); err != nil {
		t.Fatalf("first CreateCase: %v", err)
	}
	_, err := svc.CreateCase(context.Background(), validInput())
	if !errors.Is(err, repair.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestGetCaseIncludesWorkflowAndSLA(t *testing.T) {
	store, svc := newCaseFixture(t)
	def := seedThreeStepDefinition(store)
	store.seedConfiguration(workflow.Configuration{
		DefinitionID: def.ID,
		ServiceType:  "repair",
		IsActive:     true,
	})

	created, err := svc.CreateCase(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	view, err := svc.GetCase(context.Background(), created.Case.ID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if view.Instance == nil || view.Instance.ID != created.Instance.ID {
		t.Fatal("view must include the workflow instance")
	}
	if view.SLA == nil || view.SLA.ID != created.SLA.ID {
		t.Fatal("view must include the sla record")
	}
}
