package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	occupancy "markov_occupancy"
	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInternal        = "internal server error"
	errGetStates       = "failed to load states"
	errRateLimited     = "rate limit exceeded"
	errInvalidBodyPref = "invalid body: "
)

// statusFor maps a service error to an HTTP status and the message shown to
// the client. Internal failures never leak their detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrValidation),
		errors.Is(err, engine.ErrShape),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidTimeRange):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, engine.ErrConvergence):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// jsonError writes the error envelope.
func jsonError(c *gin.Context, httpCode int, msg string) {
	c.JSON(httpCode, occupancy.ErrorResponse{Status: occupancy.StatusError, Message: msg})
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, msg := statusFor(err)
	if h.log != nil {
		fields := append([]interface{}{"err", err, "http_status", code}, kv...)
		if code >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	jsonError(c, code, msg)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List states
// @Description  Ordered state list of the current model.
// @Tags         occupancy
// @Produce      json
// @Success      200  {object}  markov_occupancy.StatesResponse
// @Failure      429  {object}  markov_occupancy.ErrorResponse
// @Failure      500  {object}  markov_occupancy.ErrorResponse
// @Router       /get_states [get]
// @Router       /api/v1/states [get]
func (h *Handler) getStates(c *gin.Context) {
	states, err := h.services.Models.States(c.Request.Context())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("get_states_failed", "err", err)
		}
		jsonError(c, http.StatusInternalServerError, errGetStates)
		return
	}
	c.JSON(http.StatusOK, occupancy.StatesResponse{States: states})
}

// @Summary      Simulate occupancy
// @Description  Long-run percentage of time spent in each state. Omitted fields fall back to the current model; the model itself is never changed.
// @Tags         occupancy
// @Accept       json
// @Produce      json
// @Param        body  body      markov_occupancy.SimulateRequest  false  "Compute request"
// @Success      200   {object}  markov_occupancy.SimulateResponse
// @Failure      400   {object}  markov_occupancy.ErrorResponse
// @Failure      422   {object}  markov_occupancy.ErrorResponse
// @Failure      429   {object}  markov_occupancy.ErrorResponse
// @Failure      500   {object}  markov_occupancy.ErrorResponse
// @Router       /simulate [post]
// @Router       /api/v1/simulate [post]
func (h *Handler) simulate(c *gin.Context) {
	var req occupancy.SimulateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		jsonError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error())
		return
	}
	hours, err := parseHours(req.Hours)
	if err != nil {
		jsonError(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.services.Occupancy.Simulate(c.Request.Context(), service.SimulateParams{
		Hours:        hours,
		Transitions:  req.Transitions,
		HoldingTimes: req.HoldingTimes,
		StartState:   req.StartState,
	})
	if err != nil {
		h.logAndJSONError(c, "simulate_failed", err, "hours", hours)
		return
	}

	c.JSON(http.StatusOK, occupancy.SimulateResponse{
		Status:             occupancy.StatusSuccess,
		States:             res.States,
		Frequencies:        res.Frequencies,
		RunID:              res.RunID,
		Cached:             res.Cached,
		Iterations:         res.Diagnostics.Iterations,
		Cesaro:             res.Diagnostics.Cesaro,
		MultipleStationary: res.Diagnostics.MultipleStationary,
	})
}

// bindOptionalJSON binds the body into dst; an empty body is treated as {}.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// parseHours validates the optional hours field. Absent or null yields 0,
// which the service replaces with its default.
func parseHours(v any) (int, error) {
	if v == nil {
		return 0, nil
	}
	f, ok := engine.ParseNumber(v)
	if !ok {
		return 0, fmt.Errorf("%w: hours must be a positive integer, got %v", engine.ErrValidation, v)
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: hours must be a positive integer, got %v", engine.ErrValidation, v)
	}
	return int(f), nil
}

func (h *Handler) rateLimitMiddleware(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, occupancy.ErrorResponse{
			Status:  occupancy.StatusError,
			Message: errRateLimited,
		})
		return
	}
	c.Next()
}
