package handlers

import (
	"net/http"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/middleware"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/repository"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

// RelationshipHandler exposes the relationship graph over HTTP: direct
// follow/unfollow, the follow request workflow, the inbox and the single
// status endpoint the UI polls.
type RelationshipHandler struct {
	relationships *services.RelationshipService
	requests      *services.FollowRequestService
	inbox         *services.InboxService
	status        *services.RelationshipStatusService
}

func NewRelationshipHandler(
	relationships *services.RelationshipService,
	requests *services.FollowRequestService,
	inbox *services.InboxService,
	status *services.RelationshipStatusService,
) *RelationshipHandler {
	return &RelationshipHandler{
		relationships: relationships,
		requests:      requests,
		inbox:         inbox,
		status:        status,
	}
}

type followBody struct {
	FollowingID string `json:"following_id" binding:"required"`
}

type sendRequestBody struct {
	ToUserID string `json:"to_user_id" binding:"required"`
}

func (h *RelationshipHandler) Follow(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	var body followBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.relationships.Follow(c.Request.Context(), callerID, body.FollowingID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Followed successfully"})
}

func (h *RelationshipHandler) Unfollow(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	targetID := c.Param("id")

	if err := h.status.Unfollow(c.Request.Context(), callerID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed successfully"})
}

func (h *RelationshipHandler) GetFollowers(c *gin.Context) {
	userID := c.Param("id")
	limit := queryLimit(c)

	followers, err := h.relationships.GetFollowers(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"followers": followers})
}

func (h *RelationshipHandler) GetFollowing(c *gin.Context) {
	userID := c.Param("id")
	limit := queryLimit(c)

	following, err := h.relationships.GetFollowing(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": following})
}

func (h *RelationshipHandler) ListFollowingPage(c *gin.Context) {
	userID := c.Param("id")
	queryParams := struct {
		PageSize int    `form:"page_size"`
		Cursor   string `form:"cursor"`
	}{}
	if err := c.ShouldBindQuery(&queryParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.relationships.ListFollowingPage(c.Request.Context(), userID, queryParams.PageSize, queryParams.Cursor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// RelationshipStatus answers "what is the relationship between me and
// :id". A degraded read still returns 200; the payload flags it.
func (h *RelationshipHandler) RelationshipStatus(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	targetID := c.Param("id")

	result := h.status.Status(c.Request.Context(), callerID, targetID)
	c.JSON(http.StatusOK, result)
}

func (h *RelationshipHandler) SendFollowRequest(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	var body sendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID, err := h.status.RequestFollow(c.Request.Context(), callerID, body.ToUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Follow request sent",
		"request_id": requestID,
	})
}

func (h *RelationshipHandler) CancelFollowRequest(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	targetID := c.Param("id")

	if err := h.status.CancelRequest(c.Request.Context(), callerID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Follow request canceled"})
}

func (h *RelationshipHandler) AcceptFollowRequest(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	requestID := c.Param("id")

	if err := h.requests.Accept(c.Request.Context(), requestID, callerID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Follow request accepted"})
}

func (h *RelationshipHandler) DeclineFollowRequest(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	requestID := c.Param("id")

	if err := h.requests.Decline(c.Request.Context(), requestID, callerID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Follow request declined"})
}

func (h *RelationshipHandler) GetInbox(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	items, err := h.inbox.GetUnreadItems(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func queryLimit(c *gin.Context) int {
	queryParams := struct {
		Limit int `form:"limit"`
	}{}
	if err := c.ShouldBindQuery(&queryParams); err != nil {
		return 0
	}
	return queryParams.Limit
}

// respondError maps domain error codes to HTTP statuses; anything without
// a code is an infrastructure failure.
func respondError(c *gin.Context, err error) {
	code := repository.CodeOf(err)
	status := http.StatusInternalServerError

	switch code {
	case repository.CodeCannotFollowSelf:
		status = http.StatusBadRequest
	case repository.CodeDuplicateRequest, repository.CodeAlreadyFollowing, repository.CodeInvalidStatus:
		status = http.StatusConflict
	case repository.CodeRequestNotFound:
		status = http.StatusNotFound
	case repository.CodePermissionDenied:
		status = http.StatusForbidden
	case "":
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  string(code),
	})
}
