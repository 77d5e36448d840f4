package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neurodex/neurodex/internal/api/metrics"
	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// ModelHandler handles HTTP requests for model composition. Every mutation
// returns the full re-rendered aggregate so the client can replace its local
// copy wholesale.
type ModelHandler struct {
	models  ports.ModelService
	catalog ports.CatalogService
}

func NewModelHandler(models ports.ModelService, catalog ports.CatalogService) *ModelHandler {
	return &ModelHandler{models: models, catalog: catalog}
}

// Create handles POST /api/models.
//
// @Summary      Create a model
// @Tags         models
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createModelRequest  true  "Model name"
// @Success      201   {object}  modelResponse
// @Failure      422   {object}  map[string]string
// @Router       /api/models [post]
func (h *ModelHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req createModelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	model, err := h.models.Create(c.Request().Context(), userID, req.Name)
	if err != nil {
		return err
	}
	metrics.ModelsCreatedTotal.Inc()

	return h.render(c, http.StatusCreated, model)
}

// List handles GET /api/models.
//
// @Summary      List own models, most recently updated first
// @Tags         models
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listModelsResponse
// @Router       /api/models [get]
func (h *ModelHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	models, err := h.models.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(models))
}

// Get handles GET /api/models/:modelID.
//
// @Summary      Get a model
// @Tags         models
// @Produce      json
// @Security     BearerAuth
// @Param        modelID  path      string  true  "Model id"
// @Success      200      {object}  modelResponse
// @Failure      404      {object}  map[string]string
// @Router       /api/models/{modelID} [get]
func (h *ModelHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	model, err := h.models.Get(c.Request().Context(), c.Param("modelID"), userID)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, model)
}

// Rename handles PUT /api/models/:modelID/name.
//
// @Summary      Rename a model
// @Tags         models
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        modelID  path      string              true  "Model id"
// @Param        body     body      renameModelRequest  true  "New name"
// @Success      200      {object}  modelResponse
// @Failure      404      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /api/models/{modelID}/name [put]
func (h *ModelHandler) Rename(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req renameModelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	model, err := h.models.Rename(c.Request().Context(), c.Param("modelID"), userID, req.Name)
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("rename").Inc()
	return h.render(c, http.StatusOK, model)
}

// Delete handles DELETE /api/models/:modelID.
//
// @Summary      Delete a model
// @Tags         models
// @Security     BearerAuth
// @Param        modelID  path  string  true  "Model id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/models/{modelID} [delete]
func (h *ModelHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.models.Delete(c.Request().Context(), c.Param("modelID"), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddLayer handles POST /api/models/:modelID/layers.
//
// @Summary      Append a layer instance
// @Tags         layers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        modelID  path      string           true  "Model id"
// @Param        body     body      addLayerRequest  true  "Layer type"
// @Success      200      {object}  modelResponse
// @Failure      404      {object}  map[string]string
// @Router       /api/models/{modelID}/layers [post]
func (h *ModelHandler) AddLayer(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req addLayerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	model, err := h.models.AddLayer(c.Request().Context(), c.Param("modelID"), userID, req.LayerTypeID)
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("add_layer").Inc()
	return h.render(c, http.StatusOK, model)
}

// RemoveLayer handles DELETE /api/models/:modelID/layers/:layerID.
//
// @Summary      Remove a layer instance
// @Tags         layers
// @Produce      json
// @Security     BearerAuth
// @Param        modelID  path      string  true  "Model id"
// @Param        layerID  path      string  true  "Layer id"
// @Success      200      {object}  modelResponse
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /api/models/{modelID}/layers/{layerID} [delete]
func (h *ModelHandler) RemoveLayer(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	model, err := h.models.RemoveLayer(c.Request().Context(), c.Param("modelID"), userID, c.Param("layerID"))
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("remove_layer").Inc()
	return h.render(c, http.StatusOK, model)
}

// ReorderLayer handles PUT /api/models/:modelID/layers/:layerID/order.
//
// @Summary      Move a layer to a new index
// @Tags         layers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        modelID  path      string          true  "Model id"
// @Param        layerID  path      string          true  "Layer id"
// @Param        body     body      reorderRequest  true  "Target index (clamped)"
// @Success      200      {object}  modelResponse
// @Failure      404      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /api/models/{modelID}/layers/{layerID}/order [put]
func (h *ModelHandler) ReorderLayer(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	model, err := h.models.ReorderLayer(c.Request().Context(), c.Param("modelID"), userID, c.Param("layerID"), req.Index)
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("reorder_layer").Inc()
	return h.render(c, http.StatusOK, model)
}

// SetLayerParameter handles PUT /api/models/:modelID/layers/:layerID/data/:parameterName.
//
// @Summary      Set a layer parameter value
// @Tags         layers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        modelID        path      string               true  "Model id"
// @Param        layerID        path      string               true  "Layer id"
// @Param        parameterName  path      string               true  "Declared parameter name"
// @Param        body           body      setParameterRequest  true  "Raw value"
// @Success      200            {object}  modelResponse
// @Failure      404            {object}  map[string]string
// @Failure      422            {object}  map[string]string
// @Router       /api/models/{modelID}/layers/{layerID}/data/{parameterName} [put]
func (h *ModelHandler) SetLayerParameter(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req setParameterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	model, err := h.models.SetLayerParameter(c.Request().Context(),
		c.Param("modelID"), userID, c.Param("layerID"), c.Param("parameterName"), req.Value)
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("set_layer_parameter").Inc()
	return h.render(c, http.StatusOK, model)
}

// AddActivator handles POST /api/models/:modelID/activators.
//
// @Summary      Append an activator
// @Tags         activators
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        modelID  path      string               true  "Model id"
// @Param        body     body      addActivatorRequest  true  "Exactly one of functionId or layerId"
// @Success      200      {object}  modelResponse
// @Failure      404      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /api/models/{modelID}/activators [post]
func (h *ModelHandler) AddActivator(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req addActivatorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	model, err := h.models.AddActivator(c.Request().Context(), ports.AddActivatorInput{
		ModelID:      c.Param("modelID"),
		ActingUserID: userID,
		FunctionID:   req.FunctionID,
		LayerID:      req.LayerID,
	})
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("add_activator").Inc()
	return h.render(c, http.StatusOK, model)
}

// RemoveActivator handles DELETE /api/models/:modelID/activators/:activatorID.
//
// @Summary      Remove an activator
// @Tags         activators
// @Produce      json
// @Security     BearerAuth
// @Param        modelID      path      string  true  "Model id"
// @Param        activatorID  path      string  true  "Activator id"
// @Success      200          {object}  modelResponse
// @Failure      404          {object}  map[string]string
// @Router       /api/models/{modelID}/activators/{activatorID} [delete]
func (h *ModelHandler) RemoveActivator(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	model, err := h.models.RemoveActivator(c.Request().Context(), c.Param("modelID"), userID, c.Param("activatorID"))
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("remove_activator").Inc()
	return h.render(c, http.StatusOK, model)
}

// ReorderActivator handles PUT /api/models/:modelID/activators/:activatorID/order.
//
// @Summary      Move an activator to a new index
// @Tags         activators
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        modelID      path      string          true  "Model id"
// @Param        activatorID  path      string          true  "Activator id"
// @Param        body         body      reorderRequest  true  "Target index (clamped)"
// @Success      200          {object}  modelResponse
// @Failure      404          {object}  map[string]string
// @Failure      422          {object}  map[string]string
// @Router       /api/models/{modelID}/activators/{activatorID}/order [put]
func (h *ModelHandler) ReorderActivator(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	model, err := h.models.ReorderActivator(c.Request().Context(), c.Param("modelID"), userID, c.Param("activatorID"), req.Index)
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("reorder_activator").Inc()
	return h.render(c, http.StatusOK, model)
}

// SetActivatorParameter handles PUT /api/models/:modelID/activators/:activatorID/data/:parameterName.
//
// @Summary      Set an activator parameter value
// @Tags         activators
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        modelID        path      string               true  "Model id"
// @Param        activatorID    path      string               true  "Activator id"
// @Param        parameterName  path      string               true  "Declared parameter name"
// @Param        body           body      setParameterRequest  true  "Raw value"
// @Success      200            {object}  modelResponse
// @Failure      404            {object}  map[string]string
// @Failure      422            {object}  map[string]string
// @Router       /api/models/{modelID}/activators/{activatorID}/data/{parameterName} [put]
func (h *ModelHandler) SetActivatorParameter(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req setParameterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	model, err := h.models.SetActivatorParameter(c.Request().Context(),
		c.Param("modelID"), userID, c.Param("activatorID"), c.Param("parameterName"), req.Value)
	if err != nil {
		return err
	}
	metrics.ModelMutationsTotal.WithLabelValues("set_activator_parameter").Inc()
	return h.render(c, http.StatusOK, model)
}

func (h *ModelHandler) render(c echo.Context, status int, model *domain.Model) error {
	idx, err := buildCatalogIndex(c.Request().Context(), h.catalog)
	if err != nil {
		return err
	}
	return c.JSON(status, toModelResponse(model, idx))
}
