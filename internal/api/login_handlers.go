package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/goccy/go-json"

	"github.com/pagewise/pagewise-server/internal/auth"
	"github.com/pagewise/pagewise-server/internal/service"
)

func (s *Server) registerLoginRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "User login",
		Description: "Verifies the identity provider token and stores the signed-in user's profile",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)
}

// LoginInput carries the identity token and the raw body. The body is decoded
// by the handler so the token is always checked before the body.
type LoginInput struct {
	Authorization string `header:"Authorization" doc:"Bearer identity token"`
	RawBody       []byte
}

// LoginResponse contains the signed-in user in API responses.
type LoginResponse struct {
	UID      string `json:"uid" doc:"User ID"`
	Email    string `json:"email" doc:"Email address"`
	Name     string `json:"name" doc:"Display name"`
	PhotoURL string `json:"photoUrl" doc:"Profile photo URL"`
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	Body LoginResponse
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	token, err := auth.BearerToken(input.Authorization)
	if err != nil {
		return nil, err
	}

	// A malformed body decodes as empty, which the service rejects only
	// after the token has been verified.
	var req service.LoginRequest
	if body := bytes.TrimSpace(input.RawBody); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.logger.Debug("Ignoring malformed login body", "error", err)
			req = service.LoginRequest{}
		}
	}

	profile, err := s.services.Login.Login(ctx, token, req)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{Body: LoginResponse{
		UID:      profile.UID,
		Email:    profile.Email,
		Name:     profile.Name,
		PhotoURL: profile.PhotoURL,
	}}, nil
}
