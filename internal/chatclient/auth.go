package chatclient

import (
	"context"
	"net/http"

	"mentor-chat/internal/domain"
)

// Login autentica con email y contraseña y deja el token fijado en el
// cliente para las llamadas siguientes.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return "", err
	}
	c.token = resp.Data.AccessToken
	return resp.Data.AccessToken, nil
}

// Me devuelve la identidad autenticada con sus roles y los ids de
// estudiante/mentor si los tiene.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var resp struct {
		Data domain.User `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return domain.User{}, err
	}
	return resp.Data, nil
}
