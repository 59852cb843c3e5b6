package chat

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"mentor-chat/internal/domain"
	"mentor-chat/internal/transport"
)

// Publisher es el primitivo fire-and-forget del transporte.
type Publisher interface {
	Publish(destination string, body any) bool
}

// FallbackSender es el canal request/response durable que garantiza
// at-least-once cuando el push no está disponible.
type FallbackSender interface {
	SendMessage(ctx context.Context, payload transport.SendPayload) error
}

// SendCoordinator intenta el envío por push y cae al canal durable si no
// hay conexión. No serializa ni deduplica envíos concurrentes (eso es del
// servidor); expone InFlight para que la UI deshabilite el disparador y no
// duplique por una misma acción del usuario.
type SendCoordinator struct {
	publisher Publisher
	fallback  FallbackSender
	role      domain.Role
	user      domain.User
	logger    *zap.Logger
	inFlight  atomic.Int64
}

func NewSendCoordinator(publisher Publisher, fallback FallbackSender, role domain.Role, user domain.User, logger *zap.Logger) *SendCoordinator {
	return &SendCoordinator{
		publisher: publisher,
		fallback:  fallback,
		role:      role,
		user:      user,
		logger:    logger,
	}
}

// Send acepta un mensaje para entrega. Aceptado no significa entregado: la
// confirmación llega después como evento entrante con el mismo contenido,
// que la reconciliación agrega a la lista. No se inserta copia optimista.
func (c *SendCoordinator) Send(ctx context.Context, text, attachmentURL, targetStudentID string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyMessage
	}
	if c.role == domain.RoleMentor && targetStudentID == "" {
		return domain.ErrMissingTarget
	}

	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	payload := transport.SendPayload{
		Body:          text,
		AttachmentURL: attachmentURL,
		SenderUserID:  c.user.ID,
	}
	var destination string
	if c.role == domain.RoleMentor {
		payload.StudentID = targetStudentID
		payload.MentorID = c.user.MentorID
		destination = transport.DestSendToStudent(targetStudentID)
	} else {
		payload.StudentID = c.user.StudentID
		destination = transport.DestSendToMentors
	}

	if c.publisher.Publish(destination, payload) {
		return nil
	}

	// Sin conexión viva: una sola llamada al canal durable.
	c.logger.Info("publish unavailable, using durable fallback")
	if err := c.fallback.SendMessage(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	return nil
}

// InFlight devuelve la cantidad de envíos en vuelo.
func (c *SendCoordinator) InFlight() int {
	return int(c.inFlight.Load())
}
