package graph

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	fctx "github.com/Ramsey-B/fern/pkg/context"
	graphpkg "github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/models"
)

// EntityReader loads canonical entities by store id
type EntityReader interface {
	Get(ctx context.Context, tenantID, entityType string, id int64) (*models.CanonicalEntity, error)
}

// RelationshipReader lists the edges adjacent to an entity
type RelationshipReader interface {
	GetRelationships(ctx context.Context, tenantID, entityType string, entityID int64, direction string) ([]graphpkg.Relationship, error)
}

// Handler handles graph read API endpoints
type Handler struct {
	entities      EntityReader
	relationships RelationshipReader
}

// NewHandler creates a new graph handler
func NewHandler(entities EntityReader, relationships RelationshipReader) *Handler {
	return &Handler{
		entities:      entities,
		relationships: relationships,
	}
}

// Register registers the graph routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/entities/:entityType/:id", h.GetEntity)
	g.GET("/entities/:entityType/:id/relationships", h.GetRelationships)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "invalid id: must be an integer")
	}
	return id, nil
}

// GetEntity returns a canonical entity
// @Summary Get a canonical entity
// @Tags Graph
// @Produce json
// @Success 200 {object} models.CanonicalEntity
// @Failure 404 {object} httperror.HTTPError
// @Router /api/v1/graph/entities/{entityType}/{id} [get]
func (h *Handler) GetEntity(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fctx.GetTenantID(ctx)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	entity, err := h.entities.Get(ctx, tenantID, c.Param("entityType"), id)
	if err != nil {
		return err
	}
	if entity == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "entity not found")
	}

	return c.JSON(http.StatusOK, entity)
}

// GetRelationships lists the edges of a canonical entity
// @Summary List entity relationships
// @Tags Graph
// @Produce json
// @Param direction query string false "outgoing, incoming or both (default both)"
// @Success 200 {array} graphpkg.Relationship
// @Failure 400 {object} httperror.HTTPError
// @Router /api/v1/graph/entities/{entityType}/{id}/relationships [get]
func (h *Handler) GetRelationships(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fctx.GetTenantID(ctx)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	direction := c.QueryParam("direction")
	switch direction {
	case "":
		direction = graphpkg.DirectionBoth
	case graphpkg.DirectionOutgoing, graphpkg.DirectionIncoming, graphpkg.DirectionBoth:
	default:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid direction %q", direction)
	}

	relationships, err := h.relationships.GetRelationships(ctx, tenantID, c.Param("entityType"), id, direction)
	if err != nil {
		return err
	}
	if relationships == nil {
		relationships = []graphpkg.Relationship{}
	}

	return c.JSON(http.StatusOK, relationships)
}
