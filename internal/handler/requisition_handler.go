package handler

import (
	"net/http"

	"facilityops/internal/model"
	"facilityops/internal/service"
	"facilityops/pkg/pagination"
	"facilityops/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequisitionHandler struct {
	requisitions service.RequisitionService
	approvals    service.ApprovalService
	identity     service.IdentityResolver
}

func NewRequisitionHandler(
	requisitions service.RequisitionService,
	approvals service.ApprovalService,
	identity service.IdentityResolver,
) *RequisitionHandler {
	return &RequisitionHandler{
		requisitions: requisitions,
		approvals:    approvals,
		identity:     identity,
	}
}

// SaveRequisitionRequest is the body of every draft and submit call
type SaveRequisitionRequest struct {
	service.RequisitionForm
	Items []service.ItemInput `json:"items"`
}

func (h *RequisitionHandler) RegisterRoutes(router *gin.RouterGroup) {
	requisitions := router.Group("/requisitions")
	{
		requisitions.POST("/validate", h.Validate)
		requisitions.POST("/drafts", h.CreateDraft)
		requisitions.PUT("/:id/draft", h.UpdateDraft)
		requisitions.POST("/submit", h.Submit)
		requisitions.PUT("/:id/submit", h.SubmitExisting)
		requisitions.GET("/next-order-number", h.NextOrderNumber)
		requisitions.GET("", h.List)
		requisitions.GET("/:id", h.Get)
	}
}

// Validate godoc
// @Summary      Validate a requisition without saving it
// @Tags         requisitions
// @Accept       json
// @Produce      json
// @Param        body  body      SaveRequisitionRequest  true  "Requisition"
// @Success      200   {object}  response.Response{data=service.ValidationResult}
// @Security     BearerAuth
// @Router       /api/requisitions/validate [post]
func (h *RequisitionHandler) Validate(c *gin.Context) {
	var req SaveRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.requisitions.Validate(req.RequisitionForm, req.Items)))
}

// CreateDraft godoc
// @Summary      Save a new requisition as draft
// @Tags         requisitions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                  false  "Client retry key"
// @Param        body             body      SaveRequisitionRequest  true   "Requisition"
// @Success      201              {object}  response.Response{data=service.CreateResult}
// @Failure      400              {object}  response.Response
// @Security     BearerAuth
// @Router       /api/requisitions/drafts [post]
func (h *RequisitionHandler) CreateDraft(c *gin.Context) {
	h.save(c, false, false)
}

// UpdateDraft godoc
// @Summary      Replace the contents of a draft requisition
// @Tags         requisitions
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Requisition ID"
// @Param        body  body      SaveRequisitionRequest  true  "Requisition"
// @Success      200   {object}  response.Response{data=service.CreateResult}
// @Failure      403   {object}  response.Response
// @Security     BearerAuth
// @Router       /api/requisitions/{id}/draft [put]
func (h *RequisitionHandler) UpdateDraft(c *gin.Context) {
	h.save(c, false, true)
}

// Submit godoc
// @Summary      Create a requisition and submit it for manager approval
// @Tags         requisitions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                  false  "Client retry key"
// @Param        body             body      SaveRequisitionRequest  true   "Requisition"
// @Success      201              {object}  response.Response{data=service.CreateResult}
// @Success      200              {object}  response.Response{data=service.CreateResult}
// @Security     BearerAuth
// @Router       /api/requisitions/submit [post]
func (h *RequisitionHandler) Submit(c *gin.Context) {
	h.save(c, true, false)
}

// SubmitExisting godoc
// @Summary      Submit an existing draft for manager approval
// @Tags         requisitions
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Requisition ID"
// @Param        body  body      SaveRequisitionRequest  true  "Requisition"
// @Success      200   {object}  response.Response{data=service.CreateResult}
// @Security     BearerAuth
// @Router       /api/requisitions/{id}/submit [put]
func (h *RequisitionHandler) SubmitExisting(c *gin.Context) {
	h.save(c, true, true)
}

func (h *RequisitionHandler) save(c *gin.Context, submit, existing bool) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var existingID *uuid.UUID
	if existing {
		id, ok := pathID(c)
		if !ok {
			return
		}
		existingID = &id
	}

	var req SaveRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.ClientKey = c.GetHeader("Idempotency-Key")

	user, err := h.identity.Lookup(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	actor := service.Actor{ID: user.ID, Name: user.Name, Role: user.Role}

	var result service.CreateResult
	if submit {
		result, err = h.requisitions.SubmitForApproval(c.Request.Context(), actor, req.RequisitionForm, req.Items, existingID)
	} else {
		result, err = h.requisitions.SaveDraft(c.Request.Context(), actor, req.RequisitionForm, req.Items, existingID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == service.OutcomeCreated {
		status = http.StatusCreated
	}
	c.JSON(status, response.Success(status, result))
}

// NextOrderNumber godoc
// @Summary      Preview the next order number for today
// @Tags         requisitions
// @Produce      json
// @Success      200  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/requisitions/next-order-number [get]
func (h *RequisitionHandler) NextOrderNumber(c *gin.Context) {
	next, err := h.requisitions.GenerateOrderNumber(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"order_number": next}))
}

// List godoc
// @Summary      List requisitions visible to the caller
// @Tags         requisitions
// @Produce      json
// @Param        status       query     string  false  "Status"
// @Param        property_id  query     string  false  "Property ID"
// @Param        assigned_to  query     string  false  "Assignee ID"
// @Param        created_by   query     string  false  "Creator ID"
// @Param        page         query     int     false  "Page"
// @Param        limit        query     int     false  "Page size"
// @Success      200          {object}  response.Response{data=response.Page}
// @Security     BearerAuth
// @Router       /api/requisitions [get]
func (h *RequisitionHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	status := model.RequisitionStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		badRequest(c, "Invalid status")
		return
	}
	propertyID, ok := optionalUUID(c, "property_id")
	if !ok {
		return
	}
	assignedTo, ok := optionalUUID(c, "assigned_to")
	if !ok {
		return
	}
	createdBy, ok := optionalUUID(c, "created_by")
	if !ok {
		return
	}

	role, err := h.identity.RoleOf(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	// Same scope as AuthorizeView: requesters see what they created,
	// executives what they created or were assigned.
	var involving *uuid.UUID
	switch role {
	case model.RoleRequester:
		createdBy = &userID
	case model.RolePurchaseExecutive:
		involving = &userID
	}

	params := pagination.Parse(c)
	list, total, err := h.requisitions.List(c.Request.Context(), service.RequisitionFilter{
		Status:     status,
		PropertyID: propertyID,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
		Involving:  involving,
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, list, total, params.Page, params.Limit))
}

// Get godoc
// @Summary      Get a requisition with its items
// @Tags         requisitions
// @Produce      json
// @Param        id   path      string  true  "Requisition ID"
// @Success      200  {object}  response.Response{data=model.RequisitionList}
// @Failure      404  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/requisitions/{id} [get]
func (h *RequisitionHandler) Get(c *gin.Context) {
	req, ok := loadVisible(c, h.requisitions, h.approvals)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// loadVisible fetches the :id requisition if the caller may view it.
func loadVisible(c *gin.Context, requisitions service.RequisitionService, approvals service.ApprovalService) (*model.RequisitionList, bool) {
	userID, ok := callerID(c)
	if !ok {
		return nil, false
	}
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}

	req, err := requisitions.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if err := approvals.AuthorizeView(c.Request.Context(), userID, req); err != nil {
		writeError(c, err)
		return nil, false
	}
	return req, true
}
