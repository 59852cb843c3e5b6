package transport

import "encoding/json"

// Tipos de frame del protocolo sobre websocket. El handshake imita STOMP:
// CONNECT con credencial, CONNECTED como confirmación y recién entonces
// SUBSCRIBE. Suscribirse antes de la confirmación pierde el frame en
// algunos transportes, así que los dos pasos van estrictamente ordenados.
const (
	FrameConnect   = "CONNECT"
	FrameConnected = "CONNECTED"
	FrameSubscribe = "SUBSCRIBE"
	FrameSend      = "SEND"
	FrameMessage   = "MESSAGE"
	FrameError     = "ERROR"
)

// Frame es la unidad de intercambio en la conexión websocket.
type Frame struct {
	Type        string          `json:"type"`
	Destination string          `json:"destination,omitempty"`
	Token       string          `json:"token,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Tópicos de suscripción y destinos de envío.
const (
	TopicMentors        = "/topic/mentors"
	topicStudentPrefix  = "/topic/student/"
	DestSendToMentors   = "/app/chat.sendToMentors"
	destSendToStudent   = "/app/chat.sendToStudent/"
	destMarkAsRead      = "/app/chat.markAsRead/"
)

func TopicStudent(userID string) string { return topicStudentPrefix + userID }

func DestSendToStudent(studentID string) string { return destSendToStudent + studentID }

func DestMarkAsRead(messageID string) string { return destMarkAsRead + messageID }

// SendPayload es el cuerpo de un frame SEND de mensaje de chat.
type SendPayload struct {
	Body          string `json:"body"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	QuestionID    string `json:"question_id,omitempty"`
	SenderUserID  string `json:"sender_user_id,omitempty"`
	StudentID     string `json:"student_id,omitempty"`
	MentorID      string `json:"mentor_id,omitempty"`
}
