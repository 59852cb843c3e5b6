package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mentor-chat/internal/domain"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingInterval     = 25 * time.Second
	// Pequeña espera tras CONNECTED antes de suscribir, para tolerar el
	// armado de la sesión del lado servidor.
	subscribeGrace = 100 * time.Millisecond

	reconnectDelay       = 5 * time.Second
	maxReconnectAttempts = 5
)

// Session es dueña del ciclo de vida de una conexión publish/subscribe:
// conectar, autenticar, suscribirse al tópico del rol, detectar la
// desconexión y reintentar. No sabe nada de la semántica de los mensajes
// más allá del ruteo por tópico.
type Session struct {
	url    string
	dialer *websocket.Dialer
	logger *zap.Logger

	events   chan domain.Message
	onStatus func(bool)

	mu         sync.Mutex
	writeMu    sync.Mutex
	conn       *websocket.Conn
	connected  bool
	connecting bool
	closing    bool
	token      string
	role       domain.Role
	identity   string
}

func NewSession(url string, logger *zap.Logger) *Session {
	return &Session{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		logger: logger,
		events: make(chan domain.Message, 64),
	}
}

// Events entrega los mensajes entrantes en orden de llegada. Un solo
// consumidor los aplica de a uno.
func (s *Session) Events() <-chan domain.Message {
	return s.events
}

// OnStatus registra el callback de cambios de estado de conexión. Debe
// fijarse antes de Connect.
func (s *Session) OnStatus(fn func(connected bool)) {
	s.onStatus = fn
}

// Connect establece la conexión, espera la confirmación y recién entonces
// se suscribe al tópico que corresponde al rol. Llamar con una conexión
// viva es un no-op seguro: nunca hay dos conexiones ni suscripciones
// duplicadas por sesión.
func (s *Session) Connect(ctx context.Context, token string, role domain.Role, identityHint string) error {
	if token == "" {
		return domain.ErrAuthRejected
	}

	s.mu.Lock()
	if s.connected || s.connecting {
		s.mu.Unlock()
		return nil
	}
	s.connecting = true
	s.closing = false
	s.token = token
	s.role = role
	s.identity = identityHint
	s.mu.Unlock()

	err := s.establish(ctx)

	s.mu.Lock()
	s.connecting = false
	discarded := s.closing
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if discarded {
		// Alguien llamó Disconnect mientras conectábamos: el resultado
		// se descarta.
		s.teardown()
		return nil
	}
	s.setConnected(true)
	return nil
}

// establish ejecuta la secuencia completa conectar → confirmar → suscribir.
// Las suscripciones no sobreviven una reconexión, así que cada intento la
// repite desde cero.
func (s *Session) establish(ctx context.Context) error {
	header := http.Header{"Authorization": []string{"Bearer " + s.token}}
	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return domain.ErrAuthRejected
		}
		s.logger.Warn("ws dial failed", zap.Error(err))
		return domain.ErrTransportUnavailable
	}

	if err := s.handshake(conn); err != nil {
		conn.Close()
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readPump(conn)
	go s.pingLoop(conn)
	return nil
}

func (s *Session) handshake(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Frame{Type: FrameConnect, Token: s.token}); err != nil {
		return domain.ErrTransportUnavailable
	}

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		return domain.ErrTransportUnavailable
	}
	switch f.Type {
	case FrameConnected:
	case FrameError:
		s.logger.Warn("ws auth rejected", zap.String("error", f.Error))
		return domain.ErrAuthRejected
	default:
		return domain.ErrTransportUnavailable
	}

	time.Sleep(subscribeGrace)

	topic := TopicMentors
	if s.role == domain.RoleStudent {
		topic = TopicStudent(s.identity)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Frame{Type: FrameSubscribe, Destination: topic}); err != nil {
		return domain.ErrTransportUnavailable
	}
	s.logger.Info("ws subscribed", zap.String("topic", topic))
	return nil
}

// Publish entrega un frame al transporte. Devuelve false si no hay
// conexión viva; true solo significa que el frame salió, no que llegó.
func (s *Session) Publish(destination string, body any) bool {
	s.mu.Lock()
	conn := s.conn
	live := s.connected
	s.mu.Unlock()
	if !live || conn == nil {
		return false
	}

	raw, err := json.Marshal(body)
	if err != nil {
		s.logger.Warn("publish marshal failed", zap.Error(err))
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Frame{Type: FrameSend, Destination: destination, Body: raw}); err != nil {
		s.logger.Warn("publish write failed", zap.Error(err), zap.String("destination", destination))
		return false
	}
	return true
}

// Disconnect baja la suscripción y la conexión. Idempotente y seguro desde
// cualquier estado, incluso con un Connect en vuelo.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.closing && s.conn == nil {
		s.mu.Unlock()
		return
	}
	s.closing = true
	s.mu.Unlock()

	s.teardown()
	s.setConnected(false)
}

func (s *Session) teardown() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()

	if conn != nil {
		s.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		conn.Close()
	}
}

func (s *Session) readPump(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			s.mu.Lock()
			closing := s.closing
			stale := s.conn != conn
			s.mu.Unlock()
			if closing || stale {
				return
			}
			s.logger.Warn("ws connection lost", zap.Error(err))
			s.setConnected(false)
			go s.reconnect()
			return
		}

		switch f.Type {
		case FrameMessage:
			var msg domain.Message
			if err := json.Unmarshal(f.Body, &msg); err != nil {
				s.logger.Warn("undecodable message frame", zap.Error(err))
				continue
			}
			s.events <- msg
		case FrameError:
			// Error de protocolo: terminal para este intento, dispara
			// una reconexión.
			s.logger.Warn("ws protocol error", zap.String("error", f.Error))
			s.teardown()
			s.setConnected(false)
			go s.reconnect()
			return
		default:
			s.logger.Warn("unexpected frame", zap.String("type", f.Type))
		}
	}
}

func (s *Session) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		stale := s.conn != conn
		s.mu.Unlock()
		if stale {
			return
		}
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			return
		}
	}
}

// reconnect reintenta con backoff fijo la secuencia completa de conexión.
// Agotados los reintentos, la sesión queda en estado desconectado
// persistente en lugar de fallar en silencio.
func (s *Session) reconnect() {
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		time.Sleep(reconnectDelay)

		s.mu.Lock()
		if s.closing || s.connected {
			s.mu.Unlock()
			return
		}
		s.connecting = true
		s.mu.Unlock()

		err := s.establish(context.Background())

		s.mu.Lock()
		s.connecting = false
		closing := s.closing
		s.mu.Unlock()

		if closing {
			if err == nil {
				s.teardown()
			}
			return
		}
		if err == nil {
			s.logger.Info("ws reconnected", zap.Int("attempt", attempt))
			s.setConnected(true)
			return
		}
		if errors.Is(err, domain.ErrAuthRejected) {
			s.logger.Warn("reconnect auth rejected, giving up")
			return
		}
		s.logger.Warn("reconnect attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	s.logger.Warn("reconnect attempts exhausted", zap.Int("attempts", maxReconnectAttempts))
}

func (s *Session) setConnected(v bool) {
	s.mu.Lock()
	changed := s.connected != v
	s.connected = v
	s.mu.Unlock()
	if changed && s.onStatus != nil {
		s.onStatus(v)
	}
}
