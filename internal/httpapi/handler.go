package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pradeepkk321/fhir-mapper/internal/fhirmapper"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/platform/logging"
)

type handler struct {
	mapper *fhirmapper.Mapper
	store  *mapping.Store
}

type transformRequest struct {
	Direction string              `json:"direction"` // "toFHIR" | "fromFHIR"
	Input     string              `json:"input"`
	Context   transformContextDTO `json:"context"`
}

type transformContextDTO struct {
	OrganizationID string                 `json:"organizationId"`
	FacilityID     string                 `json:"facilityId"`
	TenantID       string                 `json:"tenantId"`
	Variables      map[string]interface{} `json:"variables"`
	Settings       map[string]string      `json:"settings"`
}

func (dto transformContextDTO) toContext() *mapping.Context {
	ctx := mapping.NewContext()
	ctx.OrganizationID = dto.OrganizationID
	ctx.FacilityID = dto.FacilityID
	ctx.TenantID = dto.TenantID
	if dto.Variables != nil {
		ctx.Variables = dto.Variables
	}
	if dto.Settings != nil {
		ctx.Settings = dto.Settings
	}
	return ctx
}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// reload forces an immediate registry rebuild from disk, outside of the
// hot-reload watcher's debounce window.
func (h *handler) reload(c echo.Context) error {
	if err := h.store.Reload(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, logging.FromTransformError(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "reloaded"})
}

// transform runs the named mapping over the request body's input in the
// requested direction, returning the target document as raw JSON, or an
// OperationOutcome describing the failure.
func (h *handler) transform(c echo.Context) error {
	mappingID := c.Param("mappingId")

	var req transformRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, logging.NewOutcomeBuilder().
			AddIssue(logging.IssueSeverityError, logging.IssueTypeInvalid, err.Error()).Build())
	}

	ctx := req.Context.toContext()
	if rid, ok := c.Get("request_id").(string); ok {
		ctx.Variables["requestId"] = rid
	}

	var (
		out string
		err error
	)
	switch req.Direction {
	case "fromFHIR":
		out, err = h.mapper.FromFHIRJSON(mappingID, req.Input, ctx)
	default:
		out, err = h.mapper.ToFHIRJSON(mappingID, req.Input, ctx)
	}
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, logging.FromTransformError(err))
	}

	return c.JSONBlob(http.StatusOK, []byte(out))
}
