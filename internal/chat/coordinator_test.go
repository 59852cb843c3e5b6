package chat

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"mentor-chat/internal/domain"
	"mentor-chat/internal/transport"
)

type mockPublisher struct {
	ok    bool
	calls []string
	last  transport.SendPayload
}

func (m *mockPublisher) Publish(destination string, body any) bool {
	m.calls = append(m.calls, destination)
	if p, ok := body.(transport.SendPayload); ok {
		m.last = p
	}
	return m.ok
}

type mockFallback struct {
	calls int
	err   error
}

func (m *mockFallback) SendMessage(_ context.Context, _ transport.SendPayload) error {
	m.calls++
	return m.err
}

func studentUser() domain.User {
	return domain.User{ID: "u1", StudentID: "st1", Roles: []string{domain.RoleNameStudent}}
}

func mentorUser() domain.User {
	return domain.User{ID: "u2", MentorID: "m1", Roles: []string{domain.RoleNameMentor}}
}

func TestSendRejectsEmptyText(t *testing.T) {
	pub := &mockPublisher{ok: true}
	fb := &mockFallback{}
	c := NewSendCoordinator(pub, fb, domain.RoleStudent, studentUser(), zap.NewNop())

	for _, text := range []string{"", "   ", "\n\t "} {
		if err := c.Send(context.Background(), text, "", ""); !errors.Is(err, domain.ErrEmptyMessage) {
			t.Fatalf("text %q: expected ErrEmptyMessage, got %v", text, err)
		}
	}
	if len(pub.calls) != 0 {
		t.Fatalf("expected no publish attempt, got %v", pub.calls)
	}
	if fb.calls != 0 {
		t.Fatalf("expected no fallback call, got %d", fb.calls)
	}
}

func TestSendMentorRequiresTarget(t *testing.T) {
	pub := &mockPublisher{ok: true}
	c := NewSendCoordinator(pub, &mockFallback{}, domain.RoleMentor, mentorUser(), zap.NewNop())

	if err := c.Send(context.Background(), "hola", "", ""); !errors.Is(err, domain.ErrMissingTarget) {
		t.Fatalf("expected ErrMissingTarget, got %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("expected no publish attempt, got %v", pub.calls)
	}
}

func TestSendPublishAccepted(t *testing.T) {
	pub := &mockPublisher{ok: true}
	fb := &mockFallback{}
	c := NewSendCoordinator(pub, fb, domain.RoleStudent, studentUser(), zap.NewNop())

	if err := c.Send(context.Background(), "hola", "", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pub.calls) != 1 || pub.calls[0] != transport.DestSendToMentors {
		t.Fatalf("expected publish to mentors destination, got %v", pub.calls)
	}
	if pub.last.StudentID != "st1" || pub.last.SenderUserID != "u1" {
		t.Fatalf("expected payload with sender ids, got %+v", pub.last)
	}
	if fb.calls != 0 {
		t.Fatalf("expected no fallback when publish succeeds, got %d", fb.calls)
	}
}

func TestSendMentorPublishesToStudentDestination(t *testing.T) {
	pub := &mockPublisher{ok: true}
	c := NewSendCoordinator(pub, &mockFallback{}, domain.RoleMentor, mentorUser(), zap.NewNop())

	if err := c.Send(context.Background(), "hola", "", "st9"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pub.calls[0] != transport.DestSendToStudent("st9") {
		t.Fatalf("expected student destination, got %q", pub.calls[0])
	}
	if pub.last.StudentID != "st9" || pub.last.MentorID != "m1" {
		t.Fatalf("expected target ids in payload, got %+v", pub.last)
	}
}

func TestSendFallsBackExactlyOnce(t *testing.T) {
	pub := &mockPublisher{ok: false}
	fb := &mockFallback{}
	c := NewSendCoordinator(pub, fb, domain.RoleStudent, studentUser(), zap.NewNop())

	if err := c.Send(context.Background(), "hola", "", ""); err != nil {
		t.Fatalf("expected accepted via fallback, got %v", err)
	}
	if fb.calls != 1 {
		t.Fatalf("expected exactly one fallback call, got %d", fb.calls)
	}
}

func TestSendFallbackFailureSurfacesDeliveryFailed(t *testing.T) {
	pub := &mockPublisher{ok: false}
	fb := &mockFallback{err: errors.New("boom")}
	c := NewSendCoordinator(pub, fb, domain.RoleStudent, studentUser(), zap.NewNop())

	err := c.Send(context.Background(), "hola", "", "")
	if !errors.Is(err, domain.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
}
