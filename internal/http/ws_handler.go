package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mentor-chat/internal/hub"
	"mentor-chat/internal/service"
	"mentor-chat/internal/transport"
)

const wsDispatchTimeout = 10 * time.Second

// WSHandler atiende /ws/chat: upgrade, handshake CONNECT/CONNECTED y
// despacho de frames SUBSCRIBE y SEND hacia el servicio de chat.
type WSHandler struct {
	logger   *zap.Logger
	hub      *hub.Hub
	jwtSvc   *service.JWTService
	chatSvc  *service.ChatService
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *zap.Logger, h *hub.Hub, jwtSvc *service.JWTService, chatSvc *service.ChatService) *WSHandler {
	return &WSHandler{
		logger:  logger,
		hub:     h,
		jwtSvc:  jwtSvc,
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// wsConn es el estado por conexión: autenticada o no y con qué claims.
type wsConn struct {
	client *hub.Client
	claims service.Claims
	authed bool
}

func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewClient(uuid.NewString(), h.hub, conn, h.logger)
	state := &wsConn{client: client}
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump(func(cl *hub.Client, raw []byte) {
		h.handleFrame(state, raw)
	})
}

func (h *WSHandler) handleFrame(state *wsConn, raw []byte) {
	var f transport.Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		h.sendError(state.client, "malformed frame")
		return
	}

	// Antes de CONNECTED no se acepta ningún otro frame.
	if !state.authed {
		if f.Type != transport.FrameConnect {
			h.rejectAndClose(state.client, "not connected")
			return
		}
		claims, err := h.jwtSvc.ParseAccessToken(f.Token)
		if err != nil {
			h.logger.Warn("ws connect rejected", zap.Error(err))
			h.rejectAndClose(state.client, "auth rejected")
			return
		}
		state.claims = claims
		state.authed = true
		h.send(state.client, transport.Frame{Type: transport.FrameConnected})
		return
	}

	switch f.Type {
	case transport.FrameSubscribe:
		h.handleSubscribe(state, f.Destination)
	case transport.FrameSend:
		h.handleSend(state, f)
	case transport.FrameConnect:
		// Conexión ya confirmada: el CONNECT repetido se ignora.
	default:
		h.sendError(state.client, "unsupported frame")
	}
}

// handleSubscribe aplica la regla de propiedad de tópicos: el mentor
// escucha el broadcast de mentores, el estudiante solo su propio tópico.
func (h *WSHandler) handleSubscribe(state *wsConn, topic string) {
	allowed := false
	switch {
	case topic == transport.TopicMentors:
		allowed = state.claims.IsMentor()
	case topic == transport.TopicStudent(state.claims.StudentID) && state.claims.StudentID != "":
		allowed = state.claims.IsStudent()
	}
	if !allowed {
		h.logger.Warn("subscribe denied",
			zap.String("topic", topic),
			zap.String("user_id", state.claims.UserID),
		)
		h.rejectAndClose(state.client, "subscribe denied")
		return
	}
	h.hub.Subscribe(state.client, topic)
}

func (h *WSHandler) handleSend(state *wsConn, f transport.Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), wsDispatchTimeout)
	defer cancel()

	var payload transport.SendPayload
	if len(f.Body) > 0 {
		if err := json.Unmarshal(f.Body, &payload); err != nil {
			h.sendError(state.client, "malformed payload")
			return
		}
	}
	payload.SenderUserID = state.claims.UserID

	var err error
	switch {
	case f.Destination == transport.DestSendToMentors:
		if !state.claims.IsStudent() {
			h.sendError(state.client, "student role required")
			return
		}
		payload.StudentID = state.claims.StudentID
		_, err = h.chatSvc.SendFromStudent(ctx, payload)

	case strings.HasPrefix(f.Destination, transport.DestSendToStudent("")):
		if !state.claims.IsMentor() {
			h.sendError(state.client, "mentor role required")
			return
		}
		payload.StudentID = strings.TrimPrefix(f.Destination, transport.DestSendToStudent(""))
		payload.MentorID = state.claims.MentorID
		_, err = h.chatSvc.SendFromMentor(ctx, payload)

	case strings.HasPrefix(f.Destination, transport.DestMarkAsRead("")):
		// El acuse es fire-and-forget: un id desconocido se registra y no
		// corta la conexión.
		messageID := strings.TrimPrefix(f.Destination, transport.DestMarkAsRead(""))
		if err := h.chatSvc.MarkAsRead(ctx, messageID); err != nil {
			h.logger.Warn("mark as read failed", zap.Error(err), zap.String("message_id", messageID))
		}
		return

	default:
		h.sendError(state.client, "unknown destination")
		return
	}

	if err != nil {
		h.logger.Warn("ws send failed",
			zap.Error(err),
			zap.String("destination", f.Destination),
			zap.String("user_id", state.claims.UserID),
		)
		h.sendError(state.client, "send failed")
	}
}

func (h *WSHandler) send(client *hub.Client, f transport.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	client.Enqueue(data)
}

func (h *WSHandler) sendError(client *hub.Client, msg string) {
	h.send(client, transport.Frame{Type: transport.FrameError, Error: msg})
}

// rejectAndClose encola el frame de error y da de baja al cliente: el
// write pump drena lo pendiente y recién entonces cierra la conexión.
func (h *WSHandler) rejectAndClose(client *hub.Client, msg string) {
	h.sendError(client, msg)
	h.hub.Unregister(client)
}
