package common

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/workflow"
	"repairdesk/internal/usecase"
)

func TestWriteErrorUsesErrorsIs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", repair.ErrNotFound), http.StatusNotFound},
		{repair.ErrInvalidArgument, http.StatusBadRequest},
		{repair.ErrConflict, http.StatusConflict},
		{workflow.ErrStepMismatch, http.StatusConflict},
		{workflow.ErrInstanceTerminal, http.StatusConflict},
		{usecase.ErrNoWorkflowAttached, http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		WriteError(c, tc.err)
		if rec.Code != tc.want {
			t.Fatalf("WriteError(%v) = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestWriteErrorCodeAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	WriteErrorCode(c, http.StatusBadRequest, "BAD", "bad")

	if !c.IsAborted() {
		t.Fatalf("expected context aborted")
	}
}

func TestParseUUIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	if _, ok := ParseUUIDParam(c, "id"); ok {
		t.Fatal("malformed uuid must be rejected")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
