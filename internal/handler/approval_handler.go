package handler

import (
	"net/http"

	"facilityops/internal/model"
	"facilityops/internal/service"
	"facilityops/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

type approveRequest struct {
	Remarks string `json:"remarks"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type clarifyRequest struct {
	Message string `json:"message"`
}

type rerouteRequest struct {
	AssignedTo *uuid.UUID              `json:"assigned_to"`
	Status     model.RequisitionStatus `json:"status"`
	Remarks    string                  `json:"remarks"`
}

type completeRequest struct {
	Remarks string `json:"remarks"`
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	requisitions := router.Group("/requisitions")
	{
		requisitions.PUT("/:id/approve", h.Approve)
		requisitions.PUT("/:id/reject", h.Reject)
		requisitions.PUT("/:id/clarify", h.RequestClarification)
		requisitions.PUT("/:id/reroute", h.Reroute)
		requisitions.PUT("/:id/complete", h.Complete)
	}
}

// Approve godoc
// @Summary      Approve a requisition awaiting manager approval
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id    path      string          true   "Requisition ID"
// @Param        body  body      approveRequest  false  "Remarks"
// @Success      200   {object}  response.Response{data=model.RequisitionList}
// @Failure      403   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Security     BearerAuth
// @Router       /api/requisitions/{id}/approve [put]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	var req approveRequest
	actorID, id, ok := bindTransition(c, &req)
	if !ok {
		return
	}
	h.respond(c)(h.approvalService.Approve(c.Request.Context(), actorID, id, req.Remarks))
}

// Reject godoc
// @Summary      Reject a requisition awaiting manager approval
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Requisition ID"
// @Param        body  body      rejectRequest  true  "Reason"
// @Success      200   {object}  response.Response{data=model.RequisitionList}
// @Failure      400   {object}  response.Response
// @Security     BearerAuth
// @Router       /api/requisitions/{id}/reject [put]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req rejectRequest
	actorID, id, ok := bindTransition(c, &req)
	if !ok {
		return
	}
	h.respond(c)(h.approvalService.Reject(c.Request.Context(), actorID, id, req.Reason))
}

// RequestClarification godoc
// @Summary      Ask the requester to clarify a pending requisition
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Requisition ID"
// @Param        body  body      clarifyRequest  true  "Message"
// @Success      200   {object}  response.Response{data=model.RequisitionList}
// @Security     BearerAuth
// @Router       /api/requisitions/{id}/clarify [put]
func (h *ApprovalHandler) RequestClarification(c *gin.Context) {
	var req clarifyRequest
	actorID, id, ok := bindTransition(c, &req)
	if !ok {
		return
	}
	h.respond(c)(h.approvalService.RequestClarification(c.Request.Context(), actorID, id, req.Message))
}

// Reroute godoc
// @Summary      Reassign an approved requisition or move it to another stage
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Requisition ID"
// @Param        body  body      rerouteRequest  true  "Assignee and/or status"
// @Success      200   {object}  response.Response{data=model.RequisitionList}
// @Failure      403   {object}  response.Response
// @Security     BearerAuth
// @Router       /api/requisitions/{id}/reroute [put]
func (h *ApprovalHandler) Reroute(c *gin.Context) {
	var req rerouteRequest
	actorID, id, ok := bindTransition(c, &req)
	if !ok {
		return
	}
	h.respond(c)(h.approvalService.Reroute(c.Request.Context(), actorID, id, service.RerouteRequest{
		AssigneeID: req.AssignedTo,
		Status:     req.Status,
		Remarks:    req.Remarks,
	}))
}

// Complete godoc
// @Summary      Mark an in-progress requisition as completed
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id    path      string           true   "Requisition ID"
// @Param        body  body      completeRequest  false  "Remarks"
// @Success      200   {object}  response.Response{data=model.RequisitionList}
// @Security     BearerAuth
// @Router       /api/requisitions/{id}/complete [put]
func (h *ApprovalHandler) Complete(c *gin.Context) {
	var req completeRequest
	actorID, id, ok := bindTransition(c, &req)
	if !ok {
		return
	}
	h.respond(c)(h.approvalService.Complete(c.Request.Context(), actorID, id, req.Remarks))
}

func (h *ApprovalHandler) respond(c *gin.Context) func(*model.RequisitionList, error) {
	return func(req *model.RequisitionList, err error) {
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
	}
}

// bindTransition resolves caller and path id and decodes an optional body.
func bindTransition(c *gin.Context, body interface{}) (uuid.UUID, uuid.UUID, bool) {
	actorID, ok := callerID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := pathID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(body); err != nil {
			badRequest(c, "Invalid request body: "+err.Error())
			return uuid.Nil, uuid.Nil, false
		}
	}
	return actorID, id, true
}
