package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"codechat/internal/config"
	"codechat/internal/models"
	"codechat/internal/service/chat"
	"codechat/internal/store"
)

const maxConversationNameLen = 100

// Handler wires HTTP routes to the chat service and the record store.
type Handler struct {
	chat  *chat.Service
	store *store.Store
	cfg   config.BasicConfig
	log   *log.Entry
}

// NewHandler constructs a Handler instance.
func NewHandler(chatService *chat.Service, st *store.Store, cfg config.BasicConfig) *Handler {
	return &Handler{
		chat:  chatService,
		store: st,
		cfg:   cfg,
		log:   log.WithField("component", "api"),
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.Use(requestID())
	api.GET("/conversations", h.listConversations)
	api.POST("/conversations", h.createConversation)
	api.GET("/conversations/:id", h.loadConversation)
	api.DELETE("/conversations/:id", h.deleteConversation)
	api.POST("/conversations/:id/rename", h.renameConversation)
	api.POST("/conversations/:id/favorite", h.toggleFavorite)
	api.GET("/conversations/:id/stats", h.conversationStats)
	api.GET("/conversations/:id/export", h.exportConversation)
	api.POST("/import", h.importConversation)
	api.POST("/process", h.process)
	api.POST("/cleanup", h.cleanup)
	api.GET("/stats", h.databaseStats)
}

// requestID tags every request so log lines and responses can be
// correlated.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) listConversations(c *gin.Context) {
	limit := h.cfg.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	includeDeleted := c.Query("include_deleted") == "true"

	conversations, err := h.store.ListConversations(c.Request.Context(), limit, includeDeleted)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

type createConversationRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	name := req.Name
	if name == "" {
		name = "New Chat"
	}
	if len(name) > maxConversationNameLen {
		name = name[:maxConversationNameLen-3] + "..."
	}

	id, err := h.store.CreateConversation(c.Request.Context(), name, nil)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"conversation_id": id,
		"name":            name,
		"timestamp":       time.Now().UTC().Format(store.TimeLayout),
	})
}

type renameConversationRequest struct {
	Name string `json:"name"`
}

func (h *Handler) renameConversation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req renameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation name is required"})
		return
	}
	if len(req.Name) > maxConversationNameLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation name too long"})
		return
	}

	renamed, err := h.store.RenameConversation(c.Request.Context(), id, req.Name)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !renamed {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": id, "name": req.Name})
}

func (h *Handler) deleteConversation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	deleted, err := h.store.SoftDeleteConversation(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": id})
}

func (h *Handler) loadConversation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.chat.Load(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) toggleFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	toggled, err := h.store.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !toggled {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": id})
}

func (h *Handler) conversationStats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stats, found, err := h.store.GetConversationStats(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) exportConversation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, found, err := h.store.ExportConversation(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) importConversation(c *gin.Context) {
	var snapshot models.ConversationExport
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot body"})
		return
	}
	id, err := h.store.ImportConversation(c.Request.Context(), snapshot)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation_id": id})
}

func (h *Handler) process(c *gin.Context) {
	req := chat.ProcessRequest{Prompt: c.PostForm("prompt")}

	if raw := c.PostForm("conversation_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
			return
		}
		req.ConversationID = id
	}

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			h.internalError(c, err)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.internalError(c, err)
			return
		}
		req.FileName = file.Filename
		req.FileContent = string(content)
	}

	result, err := h.chat.Process(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, chat.ErrUpstream):
			h.log.WithError(err).Warn("upstream model call failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			h.internalError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

type cleanupRequest struct {
	RetentionDays int `json:"retention_days"`
}

func (h *Handler) cleanup(c *gin.Context) {
	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	days := req.RetentionDays
	if days <= 0 {
		days = h.cfg.RetentionDays
	}

	count, err := h.store.CleanupStale(c.Request.Context(), days)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count, "retention_days": days})
}

func (h *Handler) databaseStats(c *gin.Context) {
	stats, err := h.store.GetDatabaseStats(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
