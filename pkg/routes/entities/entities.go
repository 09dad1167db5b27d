package entities

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	fctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

// Resolver runs the resolve-and-link pipeline for one batch
type Resolver interface {
	ResolveAndLink(ctx context.Context, req models.BatchRequest) (*models.ResponseList, error)
}

// Handler serves the entity resolution endpoint
type Handler struct {
	resolver Resolver
}

func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Register registers entity routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/get-or-add-entities", h.GetOrAddEntities)
}

// GetOrAddEntities resolves every mention of the posted batch and links its declared relations
// @Summary Resolve and link a batch of entity mentions
// @Tags Entities
// @Accept json
// @Produce json
// @Param body body models.BatchRequest true "Batch"
// @Success 200 {object} models.ResponseList
// @Failure 400 {object} httperror.HTTPError
// @Failure 502 {object} httperror.HTTPError
// @Router /api/v1/get-or-add-entities [post]
func (h *Handler) GetOrAddEntities(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.BatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TenantID == "" {
		req.TenantID = fctx.GetTenantID(ctx)
	}
	ctx = fctx.SetIngestionID(ctx, req.IngestionID)

	resp, err := h.resolver.ResolveAndLink(ctx, req)
	if err != nil {
		return toHTTPError(ctx, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// toHTTPError maps pipeline errors to responses. A cancelled request wins over the
// error it surfaced through, so gateway timeouts stay 502 and caller aborts are 503.
func toHTTPError(ctx context.Context, err error) error {
	var disambiguationErr *resolution.DisambiguationError
	var commitErr *resolution.CommitError

	switch {
	case ctx.Err() != nil:
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	case errors.Is(err, resolution.ErrInvalidBatch):
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &disambiguationErr):
		return httperror.NewHTTPErrorf(http.StatusBadGateway, "failed to resolve mention %d", disambiguationErr.TmpID)
	case errors.As(err, &commitErr):
		return httperror.NewHTTPErrorf(http.StatusBadGateway, "failed to write %d relationships", commitErr.Statements)
	case errors.Is(err, context.Canceled):
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	}
	return err
}
