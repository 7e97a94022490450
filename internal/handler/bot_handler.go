// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gemini-duck-go/internal/model"
	"gemini-duck-go/internal/service"
)

// BotHandler 把核心的投递意图暴露为 HTTP API，
// 由外层的消息通道适配器（如 Telegram 网关）消费。
type BotHandler struct {
	chatService service.ChatService
}

// NewBotHandler 创建一个新的 BotHandler。
func NewBotHandler(chatService service.ChatService) *BotHandler {
	return &BotHandler{chatService: chatService}
}

// Message 处理一条入站消息并返回投递意图。
func (h *BotHandler) Message(c *gin.Context) {
	var event model.InboundEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求体",
			"data":    nil,
		})
		return
	}

	reply := h.chatService.HandleMessage(c.Request.Context(), event)
	if reply.Mode == "" {
		// 核心决定保持沉默（空消息、群聊未注册的重复消息）
		c.JSON(http.StatusOK, gin.H{
			"code":    http.StatusOK,
			"message": "success",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    reply,
	})
}

// formatRequest 是格式选择请求的请求体。
type formatRequest struct {
	UserID    string `json:"userId" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	Format    string `json:"format" binding:"required"` // "html" 或 "pdf"
}

// ChooseFormat 按用户选择的格式构建文档并返回文件意图。
// 构建失败时待定应答保留，调用方可以换一种格式重试。
func (h *BotHandler) ChooseFormat(c *gin.Context) {
	var req formatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求体",
			"data":    nil,
		})
		return
	}

	file, err := h.chatService.ChooseFormat(c.Request.Context(), req.UserID, req.SessionID, req.Format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    file,
	})
}

// Register 注册用户并返回问候意图，对应 /start。
func (h *BotHandler) Register(c *gin.Context) {
	var event model.InboundEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求体",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    h.chatService.RegisterUser(event),
	})
}

// sessionRequest 是只携带用户与会话标识的请求体。
type sessionRequest struct {
	UserID    string `json:"userId" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
}

// Clear 清空会话上下文与用户工作区，对应 /clear。
func (h *BotHandler) Clear(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求体",
			"data":    nil,
		})
		return
	}

	if err := h.chatService.Clear(req.UserID, req.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    nil,
	})
}

// Status 返回机器人运行状态，对应 /status。
func (h *BotHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    h.chatService.Status(),
	})
}

// History 返回用户最近的历史记录概览，对应 /history。
func (h *BotHandler) History(c *gin.Context) {
	userID := c.Param("userId")
	summary, err := h.chatService.History(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取历史记录失败",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    summary,
	})
}
