package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/pagination"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

// ResourceHandler serves list, create, retrieve, update and delete for one
// resource on top of its ResourceService
type ResourceHandler[T any, C any, U any] struct {
	BaseHandler
	resource string
	sanitize []string
	service  services.ResourceService[T, C, U]
	pages    pagination.Config
}

func NewResourceHandler[T any, C any, U any](
	resource string,
	service services.ResourceService[T, C, U],
	logger utils.Logger,
	pages pagination.Config,
	sanitize ...string,
) *ResourceHandler[T, C, U] {
	return &ResourceHandler[T, C, U]{
		BaseHandler: NewBaseHandler(logger.With("resource", resource)),
		resource:    resource,
		sanitize:    sanitize,
		service:     service,
		pages:       pages,
	}
}

// Register mounts the CRUD routes on group
func (h *ResourceHandler[T, C, U]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Retrieve)
	group.PATCH("/:id", h.Update)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

func (h *ResourceHandler[T, C, U]) List(c *gin.Context) {
	params, ok := h.pageParams(c, h.pages)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing "+h.resource, "page", params.Page, "page_size", params.PageSize)

	items, total, err := h.service.List(c.Request.Context(), actorFrom(c), services.ListQuery{
		Offset: params.Offset(),
		Limit:  params.Limit(),
		Where:  queryFilters(c),
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondPage(&h.BaseHandler, c, items, total, params)
}

func (h *ResourceHandler[T, C, U]) Create(c *gin.Context) {
	var req C
	if !h.bindSanitized(c, &req, h.sanitize...) {
		return
	}

	record, err := h.service.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, Label(h.resource)+" created successfully", record)
}

func (h *ResourceHandler[T, C, U]) Retrieve(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", h.resource)
	if !ok {
		return
	}

	record, err := h.service.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ResourceHandler[T, C, U]) Update(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", h.resource)
	if !ok {
		return
	}

	var req U
	if !h.bindSanitized(c, &req, h.sanitize...) {
		return
	}

	record, err := h.service.Update(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, Label(h.resource)+" updated successfully", record)
}

func (h *ResourceHandler[T, C, U]) Delete(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", h.resource)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// queryFilters turns the non-paging query parameters into column filters.
// The repository ignores columns it does not allow.
func queryFilters(c *gin.Context) map[string]interface{} {
	where := make(map[string]interface{})
	for key, values := range c.Request.URL.Query() {
		if key == pagination.PageParam || key == pagination.PageSizeParam || len(values) == 0 {
			continue
		}
		switch value := strings.TrimSpace(values[0]); strings.ToLower(value) {
		case "true":
			where[key] = true
		case "false":
			where[key] = false
		default:
			where[key] = value
		}
	}
	return where
}
