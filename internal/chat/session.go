package chat

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mentor-chat/internal/domain"
	"mentor-chat/internal/store"
	"mentor-chat/internal/transport"
)

// Transport es la vista que la sesión tiene del transporte pub/sub.
type Transport interface {
	Connect(ctx context.Context, token string, role domain.Role, identityHint string) error
	Publish(destination string, body any) bool
	Disconnect()
	Events() <-chan domain.Message
	OnStatus(fn func(connected bool))
}

// HistoryClient es el servicio de historial: sus páginas reemplazan la
// lista completa al abrir una conversación.
type HistoryClient interface {
	StudentMessages(ctx context.Context, page, size int) ([]domain.Message, error)
	Conversation(ctx context.Context, studentID string, page, size int) ([]domain.Message, error)
	ChatRooms(ctx context.Context, page, size int) ([]domain.ChatRoomSummary, error)
}

const historyPageSize = 50

// Session es el motor de sincronización de una conversación: una identidad
// lógica, una conexión de transporte y un único loop que serializa cada
// mutación del estado. Los eventos del transporte y los comandos (abrir
// conversación, cerrar) pasan por el mismo canal de aplicación, así la
// carga de historial reemplaza la lista completa antes de que se aplique
// cualquier evento vivo bufferizado, nunca intercalado.
type Session struct {
	store       *store.ConversationStore
	transport   Transport
	history     HistoryClient
	coordinator *SendCoordinator
	logger      *zap.Logger

	user  domain.User
	role  domain.Role
	token string

	cmds      chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(
	st *store.ConversationStore,
	tr Transport,
	history HistoryClient,
	fallback FallbackSender,
	user domain.User,
	role domain.Role,
	token string,
	logger *zap.Logger,
) *Session {
	s := &Session{
		store:       st,
		transport:   tr,
		history:     history,
		coordinator: NewSendCoordinator(tr, fallback, role, user, logger),
		logger:      logger,
		user:        user,
		role:        role,
		token:       token,
		cmds:        make(chan func()),
		done:        make(chan struct{}),
	}
	tr.OnStatus(st.SetConnected)
	go s.run()
	return s
}

func (s *Session) Store() *store.ConversationStore { return s.store }

func (s *Session) Role() domain.Role { return s.role }

// Connect levanta la conexión del transporte para esta sesión. El tópico
// del estudiante va keyed por su student id.
func (s *Session) Connect(ctx context.Context) error {
	identity := s.user.StudentID
	if identity == "" {
		identity = s.user.ID
	}
	return s.transport.Connect(ctx, s.token, s.role, identity)
}

// Send delega en el coordinador de envío.
func (s *Session) Send(ctx context.Context, text, attachmentURL, targetStudentID string) error {
	return s.coordinator.Send(ctx, text, attachmentURL, targetStudentID)
}

func (s *Session) InFlight() int { return s.coordinator.InFlight() }

// MarkAsRead publica el acuse sin esperar confirmación. El mensaje
// parchado vuelve como evento entrante y la reconciliación fija la marca.
func (s *Session) MarkAsRead(messageID string) {
	if !s.transport.Publish(transport.DestMarkAsRead(messageID), struct{}{}) {
		s.logger.Warn("mark as read dropped, not connected", zap.String("message_id", messageID))
	}
}

// OpenConversation carga el historial y lo instala como la lista completa.
// En el lado mentor studentID selecciona el interlocutor activo y los
// mensajes no leídos del estudiante se marcan leídos al abrir.
func (s *Session) OpenConversation(ctx context.Context, studentID string) error {
	reply := make(chan error, 1)
	cmd := func() {
		reply <- s.loadHistory(ctx, studentID)
	}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return fmt.Errorf("session closed")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ChatRooms devuelve los resúmenes por estudiante (solo mentor). Es un
// agregado de consistencia eventual: alimenta la lista, no la transcripción.
func (s *Session) ChatRooms(ctx context.Context) ([]domain.ChatRoomSummary, error) {
	return s.history.ChatRooms(ctx, 0, historyPageSize)
}

// Close baja el transporte y detiene el loop. Seguro desde cualquier
// estado, incluso repetido.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.transport.Disconnect()
		close(s.done)
	})
}

func (s *Session) run() {
	for {
		select {
		case msg := <-s.transport.Events():
			s.apply(msg)
		case cmd := <-s.cmds:
			cmd()
		case <-s.done:
			return
		}
	}
}

// apply ejecuta un paso de reconciliación. Es el único escritor de la
// lista de mensajes mientras la sesión vive.
func (s *Session) apply(msg domain.Message) {
	out, outcome := Reconcile(s.store.Messages(), msg)
	switch outcome {
	case OutcomeAppended, OutcomePatched:
		s.store.SetMessages(out)
	case OutcomeOrphanReceipt:
		s.logger.Warn("read receipt for unknown message", zap.String("message_id", msg.ID))
	case OutcomeDuplicate:
		s.logger.Debug("duplicate event ignored", zap.String("message_id", msg.ID))
	}
}

// loadHistory corre dentro del loop: mientras dura el fetch los eventos
// vivos quedan bufferizados en el canal del transporte y se aplican recién
// después del reemplazo.
func (s *Session) loadHistory(ctx context.Context, studentID string) error {
	var (
		page []domain.Message
		err  error
	)
	if s.role == domain.RoleMentor {
		if studentID == "" {
			return domain.ErrMissingTarget
		}
		page, err = s.history.Conversation(ctx, studentID, 0, historyPageSize)
	} else {
		page, err = s.history.StudentMessages(ctx, 0, historyPageSize)
	}
	if err != nil {
		return fmt.Errorf("fetch conversation: %w", err)
	}

	// El historial llega paginado del más nuevo al más viejo; la lista se
	// guarda del más viejo al más nuevo para que lo último quede al final.
	ordered := make([]domain.Message, len(page))
	for i, m := range page {
		ordered[len(page)-1-i] = m
	}

	if s.role == domain.RoleMentor {
		s.store.SetActiveStudent(studentID)
	}
	s.store.SetMessages(ordered)

	if s.role == domain.RoleMentor {
		for _, m := range ordered {
			if m.SenderType == domain.SenderStudent && !m.Read {
				s.MarkAsRead(m.ID)
			}
		}
	}
	return nil
}
