package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"mentor-chat/internal/domain"
	"mentor-chat/internal/transport"
)

type mockMessageRepo struct {
	created  []domain.Message
	marked   map[string]domain.Message
	markErr  error
	readOnce map[string]bool
	rooms    []domain.ChatRoomSummary
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{marked: map[string]domain.Message{}, readOnce: map[string]bool{}}
}

func (m *mockMessageRepo) Create(_ context.Context, message domain.Message) error {
	m.created = append(m.created, message)
	return nil
}

func (m *mockMessageRepo) ListByStudent(_ context.Context, _ string, _, _ int) ([]domain.Message, error) {
	return nil, nil
}

func (m *mockMessageRepo) MarkRead(_ context.Context, messageID string, at time.Time) (domain.Message, bool, error) {
	if m.markErr != nil {
		return domain.Message{}, false, m.markErr
	}
	msg, ok := m.marked[messageID]
	if !ok {
		return domain.Message{}, false, errors.New("message not found")
	}
	if m.readOnce[messageID] {
		return msg, false, nil
	}
	m.readOnce[messageID] = true
	msg.Read = true
	msg.ReadAt = &at
	m.marked[messageID] = msg
	return msg, true, nil
}

func (m *mockMessageRepo) RoomSummaries(_ context.Context, _, _ int) ([]domain.ChatRoomSummary, error) {
	return m.rooms, nil
}

type mockUnread struct {
	counts map[string]int
	resets []string
}

func newMockUnread() *mockUnread { return &mockUnread{counts: map[string]int{}} }

func (m *mockUnread) Incr(_ context.Context, studentID string) error {
	m.counts[studentID]++
	return nil
}

func (m *mockUnread) Get(_ context.Context, studentID string) (int, error) {
	return m.counts[studentID], nil
}

func (m *mockUnread) Reset(_ context.Context, studentID string) error {
	m.resets = append(m.resets, studentID)
	m.counts[studentID] = 0
	return nil
}

type mockHub struct {
	broadcasts []string
	payloads   []any
}

func (m *mockHub) Broadcast(topic string, payload any) {
	m.broadcasts = append(m.broadcasts, topic)
	m.payloads = append(m.payloads, payload)
}

func TestSendFromStudentPersistsAndEchoes(t *testing.T) {
	repo := newMockMessageRepo()
	unread := newMockUnread()
	hub := &mockHub{}
	svc := NewChatService(zap.NewNop(), repo, unread, hub)

	msg, err := svc.SendFromStudent(context.Background(), transport.SendPayload{
		Body: "  hola  ", StudentID: "st1", SenderUserID: "u1",
	})
	if err != nil {
		t.Fatalf("send from student: %v", err)
	}
	if msg.ID == "" || msg.Body != "hola" || msg.SenderType != domain.SenderStudent {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(repo.created))
	}
	if unread.counts["st1"] != 1 {
		t.Fatalf("expected unread counter bumped, got %d", unread.counts["st1"])
	}
	// Mentors topic plus the student's own echo.
	want := []string{transport.TopicMentors, transport.TopicStudent("st1")}
	if len(hub.broadcasts) != 2 || hub.broadcasts[0] != want[0] || hub.broadcasts[1] != want[1] {
		t.Fatalf("expected broadcasts %v, got %v", want, hub.broadcasts)
	}
}

func TestSendFromStudentRejectsEmptyBody(t *testing.T) {
	svc := NewChatService(zap.NewNop(), newMockMessageRepo(), newMockUnread(), &mockHub{})

	_, err := svc.SendFromStudent(context.Background(), transport.SendPayload{Body: "   ", StudentID: "st1"})
	if !errors.Is(err, ErrChatInvalidInput) {
		t.Fatalf("expected ErrChatInvalidInput, got %v", err)
	}
}

func TestSendFromMentorRequiresTarget(t *testing.T) {
	svc := NewChatService(zap.NewNop(), newMockMessageRepo(), newMockUnread(), &mockHub{})

	_, err := svc.SendFromMentor(context.Background(), transport.SendPayload{Body: "hola", MentorID: "m1"})
	if !errors.Is(err, ErrChatMissingTarget) {
		t.Fatalf("expected ErrChatMissingTarget, got %v", err)
	}
}

func TestSendFromMentorEchoesBothTopics(t *testing.T) {
	hub := &mockHub{}
	svc := NewChatService(zap.NewNop(), newMockMessageRepo(), newMockUnread(), hub)

	msg, err := svc.SendFromMentor(context.Background(), transport.SendPayload{
		Body: "hola", StudentID: "st1", MentorID: "m1", SenderUserID: "u2",
	})
	if err != nil {
		t.Fatalf("send from mentor: %v", err)
	}
	if msg.SenderType != domain.SenderMentor || msg.MentorID != "m1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	want := []string{transport.TopicStudent("st1"), transport.TopicMentors}
	if len(hub.broadcasts) != 2 || hub.broadcasts[0] != want[0] || hub.broadcasts[1] != want[1] {
		t.Fatalf("expected broadcasts %v, got %v", want, hub.broadcasts)
	}
}

func TestMarkAsReadBroadcastsPatchedMessageOnce(t *testing.T) {
	repo := newMockMessageRepo()
	repo.marked["m1"] = domain.Message{ID: "m1", StudentID: "st1", SenderType: domain.SenderStudent, Body: "hola"}
	unread := newMockUnread()
	unread.counts["st1"] = 3
	hub := &mockHub{}
	svc := NewChatService(zap.NewNop(), repo, unread, hub)

	if err := svc.MarkAsRead(context.Background(), "m1"); err != nil {
		t.Fatalf("mark as read: %v", err)
	}
	if len(hub.broadcasts) != 2 {
		t.Fatalf("expected rebroadcast to both topics, got %v", hub.broadcasts)
	}
	patched, ok := hub.payloads[0].(domain.Message)
	if !ok || !patched.Read || patched.ReadAt == nil {
		t.Fatalf("expected patched message payload, got %+v", hub.payloads[0])
	}
	if len(unread.resets) != 1 || unread.resets[0] != "st1" {
		t.Fatalf("expected unread reset for st1, got %v", unread.resets)
	}

	// Second mark: already read, nothing new to distribute.
	if err := svc.MarkAsRead(context.Background(), "m1"); err != nil {
		t.Fatalf("second mark as read: %v", err)
	}
	if len(hub.broadcasts) != 2 {
		t.Fatalf("expected no extra broadcast, got %v", hub.broadcasts)
	}
}

func TestMarkAsReadMentorMessageKeepsCounters(t *testing.T) {
	repo := newMockMessageRepo()
	repo.marked["m1"] = domain.Message{ID: "m1", StudentID: "st1", SenderType: domain.SenderMentor, Body: "hola"}
	unread := newMockUnread()
	svc := NewChatService(zap.NewNop(), repo, unread, &mockHub{})

	if err := svc.MarkAsRead(context.Background(), "m1"); err != nil {
		t.Fatalf("mark as read: %v", err)
	}
	if len(unread.resets) != 0 {
		t.Fatalf("expected no unread reset for mentor message, got %v", unread.resets)
	}
}

func TestRoomSummariesMergesUnreadCounts(t *testing.T) {
	repo := newMockMessageRepo()
	repo.rooms = []domain.ChatRoomSummary{{StudentID: "st1"}, {StudentID: "st2"}}
	unread := newMockUnread()
	unread.counts["st1"] = 4
	svc := NewChatService(zap.NewNop(), repo, unread, &mockHub{})

	rooms, err := svc.RoomSummaries(context.Background(), 0, 20)
	if err != nil {
		t.Fatalf("room summaries: %v", err)
	}
	if rooms[0].UnreadCount != 4 || rooms[1].UnreadCount != 0 {
		t.Fatalf("expected merged counters, got %+v", rooms)
	}
}
