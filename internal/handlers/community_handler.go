package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

type CommunityHandler struct {
	BaseHandler
	replies services.ReplyService
}

func NewCommunityHandler(replies services.ReplyService, logger utils.Logger) *CommunityHandler {
	return &CommunityHandler{
		BaseHandler: NewBaseHandler(logger.With("handler", "community")),
		replies:     replies,
	}
}

// Thread returns the replies of a discussion as a tree
// @Router /discussions/{id}/replies [get]
func (h *CommunityHandler) Thread(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", policy.Discussions)
	if !ok {
		return
	}

	replies, err := h.replies.Thread(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussion_id": id, "count": len(replies), "results": replies})
}
