package store

import (
	"sync"

	"mentor-chat/internal/domain"
)

// ConversationStore es el contenedor observable del estado de la
// conversación activa: lista de mensajes (orden de llegada, más antiguo
// primero), bandera de conexión, rol de la sesión y estudiante activo en
// el lado mentor. Solo datos y mutaciones; nada de I/O.
//
// La lista de mensajes pertenece exclusivamente al store: la sesión aplica
// una reconciliación a la vez y publica el resultado vía SetMessages, de
// modo que existe un único camino de mutación.
type ConversationStore struct {
	mu              sync.RWMutex
	messages        []domain.Message
	connected       bool
	role            domain.Role
	activeStudentID string
	subs            []chan struct{}
}

func NewConversationStore(role domain.Role) *ConversationStore {
	return &ConversationStore{role: role}
}

// Messages devuelve una copia de la lista; los llamadores nunca ven el
// slice interno.
func (s *ConversationStore) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetMessages reemplaza la lista completa. Lo usa la sesión tanto para el
// resultado de una reconciliación como para la carga de historial.
func (s *ConversationStore) SetMessages(msgs []domain.Message) {
	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()
	s.notify()
}

func (s *ConversationStore) SetConnected(connected bool) {
	s.mu.Lock()
	changed := s.connected != connected
	s.connected = connected
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *ConversationStore) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *ConversationStore) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *ConversationStore) SetActiveStudent(studentID string) {
	s.mu.Lock()
	s.activeStudentID = studentID
	s.mu.Unlock()
	s.notify()
}

func (s *ConversationStore) ActiveStudent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeStudentID
}

// UnreadCount cuenta mensajes del interlocutor sin marca de lectura.
func (s *ConversationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counterpart := domain.SenderStudent
	if s.role == domain.RoleStudent {
		counterpart = domain.SenderMentor
	}
	n := 0
	for _, m := range s.messages {
		if m.SenderType == counterpart && !m.Read {
			n++
		}
	}
	return n
}

// Subscribe registra un canal de notificación de cambios. La señal se
// coalesce: si el receptor va atrasado no se bloquea al emisor.
func (s *ConversationStore) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *ConversationStore) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
