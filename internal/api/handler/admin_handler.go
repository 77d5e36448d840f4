package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neurodex/neurodex/internal/api/metrics"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// AdminHandler exposes the admin dashboard endpoints. All routes sit behind
// the admin RBAC middleware.
type AdminHandler struct {
	catalog ports.CatalogService
}

func NewAdminHandler(catalog ports.CatalogService) *AdminHandler {
	return &AdminHandler{catalog: catalog}
}

// Stats handles GET /api/admin/stats.
//
// @Summary      Platform usage counters
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.AdminStats
// @Failure      403  {object}  map[string]string
// @Router       /api/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.catalog.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Import handles PUT /api/admin/import.
//
// @Summary      Import the external layer and function catalog
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      importCatalogRequest  false  "Import options"
// @Success      200   {object}  ports.ImportResult
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/admin/import [put]
func (h *AdminHandler) Import(c echo.Context) error {
	var req importCatalogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.catalog.ImportCatalog(c.Request().Context(), req.Replace)
	if err != nil {
		metrics.CatalogImportsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.CatalogImportsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, result)
}
