package provider

import (
	"context"

	"github.com/kursadbilgin/wasender/internal/domain"
)

// Provider is the outbound message delivery port.
type Provider interface {
	Send(ctx context.Context, request *domain.Request) (*SendResponse, error)
}

// SendResponse stores the platform's acknowledgment of one delivered message.
type SendResponse struct {
	HTTPStatus int
	MessageID  string
}
