package handlers

import (
	"net/http"

	occupancy "markov_occupancy"
	"markov_occupancy/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Get current model
// @Tags         model
// @Produce      json
// @Success      200  {object}  models.Model
// @Failure      401  {object}  markov_occupancy.ErrorResponse
// @Failure      500  {object}  markov_occupancy.ErrorResponse
// @Router       /api/v1/model [get]
// @Security     BearerAuth
func (h *Handler) getModel(c *gin.Context) {
	m, err := h.services.Models.Current(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, "model_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// @Summary      Replace current model
// @Description  The model is solved once before it is stored; a model the engine rejects is never saved. Rows are stored normalized.
// @Tags         model
// @Accept       json
// @Produce      json
// @Param        body  body      markov_occupancy.ModelRequest  true  "Model"
// @Success      200   {object}  models.Model
// @Failure      400   {object}  markov_occupancy.ErrorResponse
// @Failure      401   {object}  markov_occupancy.ErrorResponse
// @Failure      422   {object}  markov_occupancy.ErrorResponse
// @Failure      500   {object}  markov_occupancy.ErrorResponse
// @Router       /api/v1/model [put]
// @Security     BearerAuth
func (h *Handler) putModel(c *gin.Context) {
	var req occupancy.ModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error())
		return
	}

	m, err := h.services.Models.Replace(c.Request.Context(), service.ModelParams{
		States:       req.States,
		Transitions:  req.Transitions,
		HoldingTimes: req.HoldingTimes,
	})
	if err != nil {
		h.logAndJSONError(c, "model_replace_failed", err, "states", len(req.States))
		return
	}
	if h.log != nil {
		userID, _ := c.Get(ctxUserID)
		h.log.Infow("model_replaced", "states", m.States, "user_id", userID)
	}
	c.JSON(http.StatusOK, m)
}
