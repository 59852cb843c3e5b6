package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentor-chat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	chatH *ChatHandler,
	wsH *WSHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	auth := r.Group("/api/auth")
	auth.POST("/login", authH.Login)
	auth.GET("/me", JWTAuthMiddleware(jwtSvc), authH.Me)

	chats := r.Group("/api/chats")
	chats.Use(JWTAuthMiddleware(jwtSvc))
	chats.GET("/room", chatH.ChatRooms)
	chats.GET("/student", chatH.StudentMessages)
	chats.POST("/student/send", chatH.SendMessage)
	chats.GET("/:studentId", chatH.Conversation)

	// El token del websocket viaja en el frame CONNECT, no en el upgrade.
	r.GET("/ws/chat", wsH.Serve)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
