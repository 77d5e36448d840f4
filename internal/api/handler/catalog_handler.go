package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// CatalogHandler exposes the layer type and activation function catalog.
type CatalogHandler struct {
	catalog ports.CatalogService
}

func NewCatalogHandler(catalog ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type layerTypesResponse struct {
	Data []domain.LayerType `json:"data"`
}

type functionsResponse struct {
	Data []domain.Function `json:"data"`
}

// ListLayerTypes handles GET /api/layers.
//
// @Summary      List available layer types
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  layerTypesResponse
// @Router       /api/layers [get]
func (h *CatalogHandler) ListLayerTypes(c echo.Context) error {
	layerTypes, err := h.catalog.ListLayerTypes(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, layerTypesResponse{Data: layerTypes})
}

// ListFunctions handles GET /api/functions.
//
// @Summary      List available activation functions
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  functionsResponse
// @Router       /api/functions [get]
func (h *CatalogHandler) ListFunctions(c echo.Context) error {
	functions, err := h.catalog.ListFunctions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, functionsResponse{Data: functions})
}

// CreateFunction handles POST /api/functions.
//
// @Summary      Create an activation function
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createFunctionRequest  true  "Function details"
// @Success      201   {object}  domain.Function
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/functions [post]
func (h *CatalogHandler) CreateFunction(c echo.Context) error {
	var req createFunctionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	fn, err := h.catalog.CreateFunction(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, fn)
}

// AddFunctionParameter handles POST /api/functions/:functionID/parameter.
//
// @Summary      Declare a parameter on an activation function
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        functionID  path      string                       true  "Function id"
// @Param        body        body      addFunctionParameterRequest  true  "Parameter declaration"
// @Success      200         {object}  domain.Function
// @Failure      404         {object}  map[string]string
// @Failure      422         {object}  map[string]string
// @Router       /api/functions/{functionID}/parameter [post]
func (h *CatalogHandler) AddFunctionParameter(c echo.Context) error {
	var req addFunctionParameterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	fn, err := h.catalog.AddFunctionParameter(c.Request().Context(),
		c.Param("functionID"), req.Name, req.Type, req.DefaultValue)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fn)
}

// DeleteLayerType handles DELETE /api/layers/:layerTypeID.
//
// @Summary      Delete a layer type
// @Tags         catalog
// @Security     BearerAuth
// @Param        layerTypeID  path  string  true  "Layer type id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/layers/{layerTypeID} [delete]
func (h *CatalogHandler) DeleteLayerType(c echo.Context) error {
	if err := h.catalog.DeleteLayerType(c.Request().Context(), c.Param("layerTypeID")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteFunction handles DELETE /api/functions/:functionID.
//
// @Summary      Delete an activation function
// @Tags         catalog
// @Security     BearerAuth
// @Param        functionID  path  string  true  "Function id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/functions/{functionID} [delete]
func (h *CatalogHandler) DeleteFunction(c echo.Context) error {
	if err := h.catalog.DeleteFunction(c.Request().Context(), c.Param("functionID")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
