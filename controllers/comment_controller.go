package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/engagement"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/middleware"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/store"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/utils"
)

// CommentController exposes the engagement engine's four operations over HTTP.
type CommentController struct {
	engine *engagement.Engine
}

// NewCommentController creates a controller over an engine.
func NewCommentController(engine *engagement.Engine) *CommentController {
	return &CommentController{engine: engine}
}

// ListComments returns a post's ranked threads. Anonymous responses are
// cached; viewer-specific responses are not, since every viewer sees their
// own vote.
func (cc *CommentController) ListComments(ctx *gin.Context) {
	postID := strings.TrimSpace(ctx.Param("id"))
	if postID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40050, "missing post id")
		return
	}

	viewer, _ := middleware.CurrentUser(ctx)

	cacheKey := "cache:comments:post:" + postID
	if viewer.IsAnonymous() {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	threads, err := cc.engine.ListComments(ctx.Request.Context(), postID, viewer.ID)
	if err != nil {
		renderEngineError(ctx, err)
		return
	}

	payload := gin.H{"post_id": postID, "threads": threads}
	if viewer.IsAnonymous() {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// CreateComment submits a top-level comment or a reply.
func (cc *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Text     string  `json:"text" binding:"required"`
		ParentID *string `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}

	postID := strings.TrimSpace(ctx.Param("id"))
	viewer, _ := middleware.CurrentUser(ctx)

	comment, err := cc.engine.CreateComment(ctx.Request.Context(), postID, req.Text, req.ParentID, viewer)
	if err != nil {
		renderEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:comments:post:" + postID)
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"comment": comment})
}

// DeleteComment removes a comment for its author or an admin. Deleting a
// top-level comment cascades to its replies server-side.
func (cc *CommentController) DeleteComment(ctx *gin.Context) {
	commentID := strings.TrimSpace(ctx.Param("commentId"))
	if commentID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40052, "missing comment id")
		return
	}

	viewer, _ := middleware.CurrentUser(ctx)

	removed, err := cc.engine.DeleteComment(ctx.Request.Context(), commentID, viewer)
	if err != nil {
		renderEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:comments:post:")
	utils.Success(ctx, gin.H{"removed": removed})
}

// ToggleVote applies the viewer's up/down reaction and returns the fresh
// aggregates for immediate display.
func (cc *CommentController) ToggleVote(ctx *gin.Context) {
	var req struct {
		Type models.VoteType `json:"type" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || !req.Type.Valid() {
		utils.Error(ctx, http.StatusBadRequest, 40053, "vote type must be \"up\" or \"down\"")
		return
	}

	commentID := strings.TrimSpace(ctx.Param("commentId"))
	viewer, _ := middleware.CurrentUser(ctx)

	aggregates, err := cc.engine.ToggleVote(ctx.Request.Context(), commentID, viewer, req.Type)
	if err != nil {
		renderEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:comments:post:")
	utils.Success(ctx, gin.H{"aggregates": aggregates})
}

// renderEngineError maps engine failures onto the response envelope. Every
// path produces a specific, visible message; nothing is swallowed.
func renderEngineError(ctx *gin.Context, err error) {
	var (
		rateLimited *engagement.RateLimitedError
		tooLong     *engagement.TooLongError
		spamErr     *engagement.SpamRejectedError
		storeErr    *engagement.StoreError
	)

	switch {
	case errors.Is(err, engagement.ErrUnauthenticated):
		utils.Error(ctx, http.StatusUnauthorized, 40110, err.Error())
	case errors.Is(err, engagement.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40330, err.Error())
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40430, err.Error())
	case errors.Is(err, engagement.ErrEmptyText):
		utils.Error(ctx, http.StatusBadRequest, 40060, err.Error())
	case errors.Is(err, engagement.ErrInvalidParent):
		utils.Error(ctx, http.StatusBadRequest, 40061, err.Error())
	case errors.As(err, &tooLong):
		utils.Error(ctx, http.StatusBadRequest, 40062, tooLong.Error())
	case errors.As(err, &spamErr):
		utils.Error(ctx, http.StatusBadRequest, 40063, spamErr.Error())
	case errors.As(err, &rateLimited):
		// retry_at lets the client derive a live countdown instead of
		// showing a stale seconds value.
		utils.Respond(ctx, http.StatusTooManyRequests, 42910, rateLimited.Error(), gin.H{
			"retry_after_seconds": rateLimited.Seconds(),
			"retry_at":            rateLimited.RetryAt.UTC().Format(time.RFC3339),
		})
	case errors.As(err, &storeErr):
		utils.Error(ctx, http.StatusServiceUnavailable, 50330, "comment store unavailable, please retry")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50030, "unexpected error")
	}
}
