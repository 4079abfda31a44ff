package handler

import (
	"net/http"
	"time"

	"facilityops/internal/middleware"
	"facilityops/internal/model"
	"facilityops/internal/service"
	"facilityops/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/requisitions/stats",
		middleware.RequireRole(model.RoleManager, model.RoleOpsSupervisor, model.RoleAdmin),
		h.GetStatistics)
}

// @Summary      Requisition counts by status
// @Description  Counts per status plus open and awaiting-manager totals, optionally for one property
// @Tags         statistics
// @Produce      json
// @Param        property_id  query     string  false  "Property ID"
// @Param        start_date   query     string  false  "Only requisitions created since (RFC3339)"
// @Success      200          {object}  response.Response{data=model.RequisitionStatistics}
// @Failure      400          {object}  response.Response  "Invalid filter"
// @Failure      403          {object}  response.Response
// @Security     BearerAuth
// @Router       /api/requisitions/stats [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	propertyID, ok := optionalUUID(c, "property_id")
	if !ok {
		return
	}

	var since time.Time
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "invalid start_date format, expected RFC3339")
			return
		}
		since = parsed
	}

	stats, err := h.statisticsService.RequisitionStatistics(c.Request.Context(), propertyID, since)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
