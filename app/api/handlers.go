package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jessetrippe/clarify-rss/app/database"
	"github.com/jessetrippe/clarify-rss/app/sync"
)

type Handler struct {
	service     *sync.Service
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
}

func NewHandler(service *sync.Service, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository) *Handler {
	return &Handler{
		service:     service,
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
	}
}

func (h *Handler) SyncPull(c *gin.Context) {
	userID := c.GetString(userIDKey)

	var req sync.PullRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.service.Pull(userID, req)
	if err != nil {
		slog.Error("Sync pull failed", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync pull failed"})
		return
	}

	slog.Debug("Sync pull served", "user", userID,
		"feeds", len(resp.Feeds), "articles", len(resp.Articles), "has_more", resp.HasMore)

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) SyncPush(c *gin.Context) {
	userID := c.GetString(userIDKey)

	var req sync.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.service.Push(userID, req)
	if err != nil {
		slog.Error("Sync push failed", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync push failed"})
		return
	}

	slog.Debug("Sync push served", "user", userID,
		"feeds_processed", resp.FeedsProcessed, "articles_processed", resp.ArticlesProcessed,
		"conflicts", resp.Conflicts)

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetTotalFeedCount(); err == nil {
		health["feeds"] = feedCount
	}
	if articleCount, err := h.articleRepo.GetTotalArticleCount(); err == nil {
		health["articles"] = articleCount
	}

	c.JSON(http.StatusOK, health)
}
