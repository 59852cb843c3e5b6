package domain

import "time"

// SenderType identifica quién originó un mensaje.
type SenderType string

const (
	SenderStudent SenderType = "STUDENT"
	SenderMentor  SenderType = "MENTOR"
)

// Message es el registro inmutable de un mensaje del chat. El ID lo asigna
// el servidor; el cliente nunca inserta copias optimistas, espera el eco
// del transporte.
type Message struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"student_id"`
	MentorID      string     `json:"mentor_id,omitempty"`
	SenderUserID  string     `json:"sender_user_id,omitempty"`
	SenderType    SenderType `json:"sender_type"`
	Body          string     `json:"body"`
	AttachmentURL string     `json:"attachment_url,omitempty"`
	QuestionID    string     `json:"question_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Read          bool       `json:"read"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
}

// HasReadMarker indica si el evento trae estado de lectura.
func (m Message) HasReadMarker() bool {
	return m.ReadAt != nil
}

// ChatRoomSummary es el agregado por estudiante que ve el mentor: último
// mensaje, no-leídos y la identidad del estudiante. Se refresca completo,
// no se mantiene incrementalmente.
type ChatRoomSummary struct {
	StudentID   string   `json:"student_id"`
	StudentName string   `json:"student_name,omitempty"`
	Latest      *Message `json:"latest,omitempty"`
	UnreadCount int      `json:"unread_count"`
}
