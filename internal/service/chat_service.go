package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mentor-chat/internal/domain"
	"mentor-chat/internal/repository"
	"mentor-chat/internal/transport"
)

// Broadcaster publica un payload a todos los suscriptores de un tópico.
type Broadcaster interface {
	Broadcast(topic string, payload any)
}

// ChatService es la tubería de mensajes del servidor: valida, persiste,
// actualiza contadores y reparte a los tópicos. La usan tanto el handler
// de websocket como el endpoint durable de respaldo, así ambos caminos
// producen exactamente el mismo eco.
type ChatService struct {
	logger   *zap.Logger
	messages repository.MessageRepository
	unread   repository.UnreadStore
	hub      Broadcaster
}

var (
	ErrChatInvalidInput  = errors.New("chat invalid input")
	ErrChatMissingTarget = errors.New("chat missing target student")
)

func NewChatService(logger *zap.Logger, messages repository.MessageRepository, unread repository.UnreadStore, hub Broadcaster) *ChatService {
	return &ChatService{logger: logger, messages: messages, unread: unread, hub: hub}
}

// SendFromStudent persiste un mensaje de estudiante y lo reparte al tópico
// de mentores y al propio tópico del estudiante (su eco de confirmación).
func (s *ChatService) SendFromStudent(ctx context.Context, p transport.SendPayload) (domain.Message, error) {
	body := strings.TrimSpace(p.Body)
	if body == "" || p.StudentID == "" {
		return domain.Message{}, ErrChatInvalidInput
	}

	msg := domain.Message{
		ID:            uuid.NewString(),
		StudentID:     p.StudentID,
		SenderUserID:  p.SenderUserID,
		SenderType:    domain.SenderStudent,
		Body:          body,
		AttachmentURL: p.AttachmentURL,
		QuestionID:    p.QuestionID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, err
	}
	if err := s.unread.Incr(ctx, msg.StudentID); err != nil {
		s.logger.Warn("unread incr failed", zap.Error(err), zap.String("student_id", msg.StudentID))
	}

	s.hub.Broadcast(transport.TopicMentors, msg)
	s.hub.Broadcast(transport.TopicStudent(msg.StudentID), msg)
	return msg, nil
}

// SendFromMentor persiste un mensaje de mentor hacia un estudiante y lo
// reparte al tópico del estudiante y al de mentores (eco del mentor).
func (s *ChatService) SendFromMentor(ctx context.Context, p transport.SendPayload) (domain.Message, error) {
	body := strings.TrimSpace(p.Body)
	if body == "" {
		return domain.Message{}, ErrChatInvalidInput
	}
	if p.StudentID == "" {
		return domain.Message{}, ErrChatMissingTarget
	}

	msg := domain.Message{
		ID:            uuid.NewString(),
		StudentID:     p.StudentID,
		MentorID:      p.MentorID,
		SenderUserID:  p.SenderUserID,
		SenderType:    domain.SenderMentor,
		Body:          body,
		AttachmentURL: p.AttachmentURL,
		QuestionID:    p.QuestionID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, err
	}

	s.hub.Broadcast(transport.TopicStudent(msg.StudentID), msg)
	s.hub.Broadcast(transport.TopicMentors, msg)
	return msg, nil
}

// MarkAsRead fija la marca de lectura una sola vez y reenvía el mensaje
// parchado a ambos tópicos; ese reenvío es lo que las sesiones reconcilian
// como actualización de estado de lectura.
func (s *ChatService) MarkAsRead(ctx context.Context, messageID string) error {
	if messageID == "" {
		return ErrChatInvalidInput
	}
	msg, changed, err := s.messages.MarkRead(ctx, messageID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !changed {
		// Ya estaba leído: no hay nada nuevo que repartir.
		return nil
	}

	if msg.SenderType == domain.SenderStudent {
		if err := s.unread.Reset(ctx, msg.StudentID); err != nil {
			s.logger.Warn("unread reset failed", zap.Error(err), zap.String("student_id", msg.StudentID))
		}
	}

	s.hub.Broadcast(transport.TopicMentors, msg)
	s.hub.Broadcast(transport.TopicStudent(msg.StudentID), msg)
	return nil
}

// RoomSummaries arma la lista de salas del mentor combinando el último
// mensaje por estudiante con el contador de no leídos.
func (s *ChatService) RoomSummaries(ctx context.Context, page, size int) ([]domain.ChatRoomSummary, error) {
	summaries, err := s.messages.RoomSummaries(ctx, page, size)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		n, err := s.unread.Get(ctx, summaries[i].StudentID)
		if err != nil {
			s.logger.Warn("unread get failed", zap.Error(err), zap.String("student_id", summaries[i].StudentID))
			continue
		}
		summaries[i].UnreadCount = n
	}
	return summaries, nil
}
