package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/drummonds/bandgap/database"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

// GetRun retrieves a run by ID
// @Summary Get run by ID
// @Description Retrieve one request that was forwarded to the prediction service
// @Tags Runs
// @Produce json
// @Param id path string true "Run ID (ULID)"
// @Success 200 {object} database.Run "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (serverHandler *ServerHandler) GetRun(c echo.Context) error {
	runIDStr := c.Param("id")

	runID, err := ulid.Parse(runIDStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid run ID format",
		})
	}

	run, err := serverHandler.DB.GetRun(c.Request().Context(), runID)
	if errors.Is(err, database.ErrRunNotFound) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "Run not found",
		})
	}
	if err != nil {
		Logger.Error("Failed to get run", "runID", runIDStr, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve run",
		})
	}

	return c.JSON(http.StatusOK, run)
}

// GetRecentRuns retrieves recent runs with pagination
// @Summary Get recent runs
// @Description Retrieve a list of recent prediction and health check runs
// @Tags Runs
// @Produce json
// @Param limit query int false "Number of runs to return (default: 20)"
// @Param offset query int false "Offset for pagination (default: 0)"
// @Success 200 {array} database.Run "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (serverHandler *ServerHandler) GetRecentRuns(c echo.Context) error {
	limit := 20
	offset := 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	runs, err := serverHandler.DB.GetRecentRuns(c.Request().Context(), limit, offset)
	if err != nil {
		Logger.Error("Failed to get recent runs", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve runs",
		})
	}

	if runs == nil {
		runs = []database.Run{}
	}

	return c.JSON(http.StatusOK, runs)
}
