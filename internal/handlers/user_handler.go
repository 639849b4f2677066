package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/pagination"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	service services.UserService
	pages   pagination.Config
}

func NewUserHandler(service services.UserService, logger utils.Logger, pages pagination.Config) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger.With("handler", "users")),
		service:     service,
		pages:       pages,
	}
}

// Me returns the authenticated user with their profile
// @Router /auth/user [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Router /auth/user [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req models.UpdateUserRequest
	if !h.bindSanitized(c, &req, "username", "first_name", "middle_name", "last_name") {
		return
	}

	user, err := h.service.UpdateMe(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Profile updated successfully", user)
}

// ListUsers lists accounts, filtered by role, is_active or is_verified
// @Router /auth/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	params, ok := h.pageParams(c, h.pages)
	if !ok {
		return
	}

	where := queryFilters(c)
	if role, ok := where["role"].(string); ok {
		if parsed, valid := models.ParseRole(role); valid {
			where["role"] = string(parsed)
		}
	}

	users, total, err := h.service.List(c.Request.Context(), actorFrom(c), services.ListQuery{
		Offset: params.Offset(),
		Limit:  params.Limit(),
		Where:  where,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondPage(&h.BaseHandler, c, users, total, params)
}

// @Router /auth/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", policy.Users)
	if !ok {
		return
	}

	user, err := h.service.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Router /auth/users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", policy.Users)
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if !h.bindSanitized(c, &req, "role") {
		return
	}

	user, err := h.service.UpdateRole(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "User role updated successfully", user)
}

// @Router /auth/users/{id}/status [patch]
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", policy.Users)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if !h.bindSanitized(c, &req) {
		return
	}

	user, err := h.service.UpdateStatus(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "User status updated successfully", user)
}

// @Router /auth/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", policy.Users)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
