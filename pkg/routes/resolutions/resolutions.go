package resolutions

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	fctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
)

// RecordLister reads the resolution audit log
type RecordLister interface {
	ListByIngestion(ctx context.Context, tenantID, ingestionID string, page, pageSize int) (*models.ResolutionRecordList, error)
}

type Handler struct {
	records RecordLister
}

func NewHandler(records RecordLister) *Handler {
	return &Handler{records: records}
}

// Register registers resolution audit routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/ingestions/:ingestionId/resolutions", h.ListByIngestion)
}

// ListByIngestion lists what every mention of an ingestion resolved to
// @Summary List resolutions of an ingestion
// @Tags Resolutions
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 50)"
// @Success 200 {object} models.ResolutionRecordList
// @Router /api/v1/ingestions/{ingestionId}/resolutions [get]
func (h *Handler) ListByIngestion(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	page, pageSize := 1, 50
	if err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("page_size", &pageSize).
		BindError(); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid pagination parameters")
	}

	list, err := h.records.ListByIngestion(ctx, tenantID, c.Param("ingestionId"), page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}
