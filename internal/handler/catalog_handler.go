package handler

import (
	"net/http"

	"facilityops/internal/service"
	"facilityops/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/properties", h.ListProperties)
	router.GET("/item-masters", h.ListItemMasters)
}

// ListProperties godoc
// @Summary      List properties
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Property}
// @Security     BearerAuth
// @Router       /api/properties [get]
func (h *CatalogHandler) ListProperties(c *gin.Context) {
	properties, err := h.catalogService.ListProperties(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, properties))
}

// ListItemMasters godoc
// @Summary      List the item catalog
// @Tags         catalog
// @Produce      json
// @Param        category          query     string  false  "Category name"
// @Param        include_inactive  query     bool    false  "Include inactive items"
// @Success      200               {object}  response.Response{data=[]model.ItemMaster}
// @Security     BearerAuth
// @Router       /api/item-masters [get]
func (h *CatalogHandler) ListItemMasters(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	items, err := h.catalogService.ListItemMasters(c.Request.Context(), c.Query("category"), includeInactive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}
