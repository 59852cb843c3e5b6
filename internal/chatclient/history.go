package chatclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"mentor-chat/internal/domain"
	"mentor-chat/internal/transport"
)

func pageQuery(page, size int) string {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return "?" + q.Encode()
}

// StudentMessages trae la página de la conversación del estudiante
// autenticado, del más nuevo al más viejo.
func (c *Client) StudentMessages(ctx context.Context, page, size int) ([]domain.Message, error) {
	var resp struct {
		Data []domain.Message `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chats/student"+pageQuery(page, size), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Conversation trae la página de la conversación con un estudiante (lado
// mentor), del más nuevo al más viejo.
func (c *Client) Conversation(ctx context.Context, studentID string, page, size int) ([]domain.Message, error) {
	var resp struct {
		Data []domain.Message `json:"data"`
	}
	path := "/api/chats/" + url.PathEscape(studentID) + pageQuery(page, size)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ChatRooms trae los resúmenes por estudiante para el lado mentor.
func (c *Client) ChatRooms(ctx context.Context, page, size int) ([]domain.ChatRoomSummary, error) {
	var resp struct {
		Data []domain.ChatRoomSummary `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chats/room"+pageQuery(page, size), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SendMessage es el camino de respaldo request/response cuando el push no
// está disponible.
func (c *Client) SendMessage(ctx context.Context, payload transport.SendPayload) error {
	return c.do(ctx, http.MethodPost, "/api/chats/student/send", payload, nil)
}
