package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentor-chat/internal/repository"
	"mentor-chat/internal/service"
	"mentor-chat/internal/transport"
)

// ChatHandler expone historial, salas y el envío durable de respaldo.
type ChatHandler struct {
	logger   *zap.Logger
	messages repository.MessageRepository
	unread   repository.UnreadStore
	chatSvc  *service.ChatService
}

func NewChatHandler(logger *zap.Logger, messages repository.MessageRepository, unread repository.UnreadStore, chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{logger: logger, messages: messages, unread: unread, chatSvc: chatSvc}
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

// ChatRooms maneja GET /api/chats/room (solo mentor).
func (h *ChatHandler) ChatRooms(c *gin.Context) {
	claims, _ := GetAuthClaims(c)
	if !claims.IsMentor() {
		c.JSON(http.StatusForbidden, gin.H{"error": "mentor role required"})
		return
	}

	page, size := pageParams(c)
	rooms, err := h.chatSvc.RoomSummaries(c.Request.Context(), page, size)
	if err != nil {
		h.logger.Error("room summaries failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// StudentMessages maneja GET /api/chats/student: la conversación del
// estudiante autenticado, del más nuevo al más viejo.
func (h *ChatHandler) StudentMessages(c *gin.Context) {
	claims, _ := GetAuthClaims(c)
	if !claims.IsStudent() || claims.StudentID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "student role required"})
		return
	}

	page, size := pageParams(c)
	msgs, err := h.messages.ListByStudent(c.Request.Context(), claims.StudentID, page, size)
	if err != nil {
		h.logger.Error("student messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

// Conversation maneja GET /api/chats/:studentId (solo mentor). Abrir la
// conversación resetea el contador de no leídos de ese estudiante.
func (h *ChatHandler) Conversation(c *gin.Context) {
	claims, _ := GetAuthClaims(c)
	if !claims.IsMentor() {
		c.JSON(http.StatusForbidden, gin.H{"error": "mentor role required"})
		return
	}

	studentID := c.Param("studentId")
	page, size := pageParams(c)
	msgs, err := h.messages.ListByStudent(c.Request.Context(), studentID, page, size)
	if err != nil {
		h.logger.Error("conversation failed", zap.Error(err), zap.String("student_id", studentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversation"})
		return
	}

	if err := h.unread.Reset(c.Request.Context(), studentID); err != nil {
		h.logger.Warn("unread reset failed", zap.Error(err), zap.String("student_id", studentID))
	}

	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

// SendMessage maneja POST /api/chats/student/send: el canal durable que
// usa el cliente cuando el push no está disponible.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	claims, _ := GetAuthClaims(c)

	var payload transport.SendPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	payload.SenderUserID = claims.UserID

	// El payload de un mentor trae mentor_id y el estudiante destino; el
	// de un estudiante se fuerza a su propia conversación.
	var err error
	if claims.IsMentor() && payload.MentorID != "" {
		payload.MentorID = claims.MentorID
		_, err = h.chatSvc.SendFromMentor(c.Request.Context(), payload)
	} else {
		payload.StudentID = claims.StudentID
		_, err = h.chatSvc.SendFromStudent(c.Request.Context(), payload)
	}
	if err != nil {
		h.logger.Warn("durable send failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"accepted": true}})
}
