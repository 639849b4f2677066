package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/pagination"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

var peerTextFields = []string{"title", "description", "topic", "meeting_link"}

// PeerSessionHandler serves peer-learning sessions kept in the document store
type PeerSessionHandler struct {
	BaseHandler
	service services.PeerSessionService
	pages   pagination.Config
}

func NewPeerSessionHandler(service services.PeerSessionService, logger utils.Logger, pages pagination.Config) *PeerSessionHandler {
	return &PeerSessionHandler{
		BaseHandler: NewBaseHandler(logger.With("handler", policy.PeerSessions)),
		service:     service,
		pages:       pages,
	}
}

func (h *PeerSessionHandler) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/mine", h.Mine)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/join", h.Join)
	group.DELETE("/:id/leave", h.Leave)
	group.GET("/:id/participants", h.Participants)
}

// @Router /peer-sessions [get]
func (h *PeerSessionHandler) List(c *gin.Context) {
	params, ok := h.pageParams(c, h.pages)
	if !ok {
		return
	}

	filter := services.PeerFilter{Status: c.Query("status"), Role: c.Query("role")}
	if raw := c.Query("course_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "INVALID_COURSE_ID", "Invalid course ID.", nil)
			return
		}
		courseID := uint(id)
		filter.CourseID = &courseID
	}

	sessions, total, err := h.service.List(c.Request.Context(), actorFrom(c), filter, params.Offset(), params.Limit())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondPage(&h.BaseHandler, c, sessions, total, params)
}

// @Router /peer-sessions/mine [get]
func (h *PeerSessionHandler) Mine(c *gin.Context) {
	params, ok := h.pageParams(c, h.pages)
	if !ok {
		return
	}

	sessions, total, err := h.service.Mine(c.Request.Context(), actorFrom(c), params.Offset(), params.Limit())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondPage(&h.BaseHandler, c, sessions, total, params)
}

// @Router /peer-sessions [post]
func (h *PeerSessionHandler) Create(c *gin.Context) {
	var req models.CreatePeerSessionRequest
	if !h.bindSanitized(c, &req, peerTextFields...) {
		return
	}

	session, err := h.service.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Peer session created successfully", session)
}

// @Router /peer-sessions/{id} [get]
func (h *PeerSessionHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// @Router /peer-sessions/{id} [patch]
func (h *PeerSessionHandler) Update(c *gin.Context) {
	var req models.UpdatePeerSessionRequest
	if !h.bindSanitized(c, &req, peerTextFields...) {
		return
	}

	session, err := h.service.Update(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Peer session updated successfully", session)
}

// @Router /peer-sessions/{id} [delete]
func (h *PeerSessionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /peer-sessions/{id}/join [post]
func (h *PeerSessionHandler) Join(c *gin.Context) {
	seat, err := h.service.Join(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Joined peer session successfully", seat)
}

// @Router /peer-sessions/{id}/leave [delete]
func (h *PeerSessionHandler) Leave(c *gin.Context) {
	if err := h.service.Leave(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /peer-sessions/{id}/participants [get]
func (h *PeerSessionHandler) Participants(c *gin.Context) {
	params, ok := h.pageParams(c, h.pages)
	if !ok {
		return
	}

	seats, total, err := h.service.Participants(c.Request.Context(), actorFrom(c), c.Param("id"), params.Offset(), params.Limit())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondPage(&h.BaseHandler, c, seats, total, params)
}
