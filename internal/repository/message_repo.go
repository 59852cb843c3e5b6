package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentor-chat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	// ListByStudent devuelve la página del más nuevo al más viejo.
	ListByStudent(ctx context.Context, studentID string, page, size int) ([]domain.Message, error)
	// MarkRead fija read_at una sola vez; si el mensaje ya estaba leído
	// devuelve la fila tal cual y changed=false.
	MarkRead(ctx context.Context, messageID string, at time.Time) (domain.Message, bool, error)
	// RoomSummaries devuelve el último mensaje por estudiante, del más
	// reciente al más viejo. El conteo de no leídos lo agrega el servicio.
	RoomSummaries(ctx context.Context, page, size int) ([]domain.ChatRoomSummary, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

const messageColumns = `id, student_id, mentor_id, sender_user_id, sender_type, body, attachment_url, question_id, created_at, read, read_at`

func scanMessage(row pgx.Row) (domain.Message, error) {
	var (
		msg        domain.Message
		mentorID   *string
		senderID   *string
		attachment *string
		questionID *string
	)
	err := row.Scan(
		&msg.ID,
		&msg.StudentID,
		&mentorID,
		&senderID,
		&msg.SenderType,
		&msg.Body,
		&attachment,
		&questionID,
		&msg.CreatedAt,
		&msg.Read,
		&msg.ReadAt,
	)
	if err != nil {
		return domain.Message{}, err
	}
	if mentorID != nil {
		msg.MentorID = *mentorID
	}
	if senderID != nil {
		msg.SenderUserID = *senderID
	}
	if attachment != nil {
		msg.AttachmentURL = *attachment
	}
	if questionID != nil {
		msg.QuestionID = *questionID
	}
	return msg, nil
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, student_id, mentor_id, sender_user_id, sender_type, body, attachment_url, question_id, created_at, read, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.StudentID,
		nullable(message.MentorID),
		nullable(message.SenderUserID),
		string(message.SenderType),
		message.Body,
		nullable(message.AttachmentURL),
		nullable(message.QuestionID),
		message.CreatedAt,
		message.Read,
		message.ReadAt,
	)
	return err
}

func (r *PgMessageRepository) ListByStudent(ctx context.Context, studentID string, page, size int) ([]domain.Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, studentID, size, page*size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *PgMessageRepository) MarkRead(ctx context.Context, messageID string, at time.Time) (domain.Message, bool, error) {
	// read_at es monótono: el UPDATE solo aplica si todavía no estaba fijado.
	const update = `
		UPDATE messages
		SET read = TRUE, read_at = $2
		WHERE id = $1 AND read_at IS NULL
		RETURNING ` + messageColumns + `
	`
	msg, err := scanMessage(r.pool.QueryRow(ctx, update, messageID, at))
	if err == nil {
		return msg, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Message{}, false, err
	}

	const sel = `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	msg, err = scanMessage(r.pool.QueryRow(ctx, sel, messageID))
	if err != nil {
		return domain.Message{}, false, err
	}
	return msg, false, nil
}

func (r *PgMessageRepository) RoomSummaries(ctx context.Context, page, size int) ([]domain.ChatRoomSummary, error) {
	const query = `
		SELECT DISTINCT ON (student_id) ` + messageColumns + `
		FROM messages
		ORDER BY student_id, created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.ChatRoomSummary
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		latest := msg
		summaries = append(summaries, domain.ChatRoomSummary{
			StudentID: msg.StudentID,
			Latest:    &latest,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Más reciente primero, paginado en memoria: la cantidad de salas por
	// mentor es chica.
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Latest.CreatedAt.After(summaries[j].Latest.CreatedAt)
	})
	start := page * size
	if start >= len(summaries) {
		return []domain.ChatRoomSummary{}, nil
	}
	end := start + size
	if end > len(summaries) {
		end = len(summaries)
	}
	return summaries[start:end], nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
