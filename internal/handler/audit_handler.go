package handler

import (
	"net/http"

	"facilityops/internal/service"
	"facilityops/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	requisitions service.RequisitionService
	approvals    service.ApprovalService
}

func NewAuditHandler(auditService service.AuditService, requisitions service.RequisitionService, approvals service.ApprovalService) *AuditHandler {
	return &AuditHandler{auditService: auditService, requisitions: requisitions, approvals: approvals}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/requisitions/:id/activity", h.GetActivity)
}

// GetActivity returns the audit trail of one requisition, oldest first
// @Summary      Requisition activity
// @Description  Lifecycle events of a requisition with actor names resolved
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Requisition ID"
// @Success      200  {object}  response.Response{data=[]service.ActivityEntry}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requisitions/{id}/activity [get]
func (h *AuditHandler) GetActivity(c *gin.Context) {
	req, ok := loadVisible(c, h.requisitions, h.approvals)
	if !ok {
		return
	}

	entries, err := h.auditService.ListActivity(c.Request.Context(), req.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}
