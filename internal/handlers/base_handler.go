package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/pagination"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message   string      `json:"message"`
	Errors    interface{} `json:"errors,omitempty"`
	ErrorCode string      `json:"error_code"`
}

// SuccessResponse wraps the payload of a successful mutation
type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	ErrorCode *string     `json:"error_code"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err.Error())...)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, code, message string, errs interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Errors: errs, ErrorCode: code})
}

func (h *BaseHandler) RespondWithSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{Message: message, Data: data})
}

// handleServiceError maps a service error to its status and envelope
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var (
		validationErrors validator.ValidationErrors
		sanitizeError    *utils.SanitizeError
		pageError        *pagination.Error
		violation        *policy.Violation
		appError         *services.AppError
		notFoundError    *services.NotFoundError
		duplicateError   *services.DuplicateError
	)

	switch {
	case errors.As(err, &validationErrors):
		h.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", validationErrors.Fields())
	case errors.As(err, &sanitizeError):
		h.RespondWithError(c, http.StatusBadRequest, sanitizeError.Code, sanitizeError.Message,
			map[string][]string{sanitizeError.Field: {sanitizeError.Message}})
	case errors.As(err, &pageError):
		h.RespondWithError(c, pageError.Status, pageError.Code, pageError.Message, nil)
	case errors.As(err, &violation):
		h.RespondWithError(c, violation.Status, violation.Code, violation.Message, nil)
	case errors.As(err, &appError):
		h.RespondWithError(c, appError.Status, appError.Code, appError.Message, appError.Errors)
	case errors.As(err, &notFoundError):
		h.RespondWithError(c, http.StatusNotFound, notFoundError.Code(), notFoundMessage(notFoundError.Resource), nil)
	case errors.As(err, &duplicateError):
		h.RespondWithError(c, http.StatusConflict, duplicateError.Code, duplicateError.Message, nil)
	case errors.Is(err, services.ErrDatabase):
		h.LogError(c, err, "Database error")
		h.RespondWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "A database error occurred.", nil)
	default:
		h.LogError(c, err, "Unexpected service error")
		h.RespondWithError(c, http.StatusInternalServerError, "UNEXPECTED_ERROR", "An unexpected error occurred.", nil)
	}
}

// notFoundMessage turns "course-categories" into "Category not found."
func notFoundMessage(resource string) string {
	return Label(resource) + " not found."
}

// Label is the human name of resource, e.g. "User assessment"
func Label(resource string) string {
	words := strings.ToLower(strings.ReplaceAll(policy.CodeName(resource), "_", " "))
	if words == "" {
		return "Resource"
	}
	return strings.ToUpper(words[:1]) + words[1:]
}

// parseIDParam reads a positive integer path parameter, answering 400
// INVALID_<RESOURCE>_ID when it is malformed
func (h *BaseHandler) parseIDParam(c *gin.Context, name, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "INVALID_"+policy.CodeName(resource)+"_ID",
			fmt.Sprintf("Invalid %s ID.", strings.ToLower(Label(resource))), nil)
		return 0, false
	}
	return uint(id), true
}

// bindSanitized decodes the JSON body, cleans the named text fields and
// decodes the result into dst
func (h *BaseHandler) bindSanitized(c *gin.Context, dst interface{}, fields ...string) bool {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "INVALID_DATA", "Invalid request payload",
			map[string][]string{"body": {err.Error()}})
		return false
	}
	if err := utils.Sanitize(raw, fields...); err != nil {
		h.handleServiceError(c, err)
		return false
	}

	body, err := json.Marshal(raw)
	if err == nil {
		err = json.Unmarshal(body, dst)
	}
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "INVALID_DATA", "Invalid request payload",
			map[string][]string{"body": {err.Error()}})
		return false
	}
	return true
}

// pageParams parses page and page_size for the request path
func (h *BaseHandler) pageParams(c *gin.Context, cfg pagination.Config) (pagination.Params, bool) {
	params, err := pagination.Parse(c.Request.URL.Query(), c.Request.URL.Path, cfg)
	if err != nil {
		h.handleServiceError(c, err)
		return params, false
	}
	return params, true
}

func respondPage[T any](h *BaseHandler, c *gin.Context, items []T, total int64, params pagination.Params) {
	page, err := pagination.NewPage(items, total, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

const (
	userKey   = "user"
	userIDKey = "user_id"
	roleKey   = "user_role"
)

// GetUserFromContext returns the authenticated user, nil when anonymous
func GetUserFromContext(c *gin.Context) *models.User {
	value, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// actorFrom is the policy view of the authenticated user
func actorFrom(c *gin.Context) *policy.Actor {
	return policy.ActorFromUser(GetUserFromContext(c))
}
