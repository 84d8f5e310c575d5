package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/wasender/internal/domain"
)

const (
	// DefaultBaseURL is the Graph API root the messages endpoint lives under.
	DefaultBaseURL = "https://graph.facebook.com/v19.0"

	defaultRequestTimeout = 10 * time.Second
)

type successBody struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
		Subcode *int   `json:"error_subcode"`
	} `json:"error"`
}

// GraphProvider sends messages through the Cloud API messages endpoint,
// keyed by the sending phone number ID. Retries belong to the caller; the
// underlying client never retries on its own.
type GraphProvider struct {
	client      *resty.Client
	baseURL     string
	accessToken string
}

func NewGraphProvider(baseURL, accessToken string) (*GraphProvider, error) {
	client := resty.New()
	client.SetTimeout(defaultRequestTimeout)
	client.SetRetryCount(0)

	return NewGraphProviderWithClient(baseURL, accessToken, client)
}

func NewGraphProviderWithClient(baseURL, accessToken string, client *resty.Client) (*GraphProvider, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, domain.ErrMissingCredential
	}

	trimmedBase := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBase == "" {
		trimmedBase = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(trimmedBase); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultRequestTimeout)
	}
	client.SetRetryCount(0)

	return &GraphProvider{
		client:      client,
		baseURL:     trimmedBase,
		accessToken: accessToken,
	}, nil
}

func (p *GraphProvider) Send(ctx context.Context, request *domain.Request) (*SendResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if request == nil || request.SenderID == "" {
		return nil, fmt.Errorf("%w: request is incomplete", domain.ErrValidation)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", p.baseURL, request.SenderID)

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(p.accessToken).
		SetBody(request.Payload).
		Post(endpoint)
	if err != nil {
		return nil, &APIError{
			Message: "request failed",
			Cause:   err,
		}
	}
	if response == nil {
		return nil, &APIError{Message: "empty response"}
	}

	statusCode := response.StatusCode()
	responseBody := response.Body()

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		var ok successBody
		if err := json.Unmarshal(responseBody, &ok); err != nil || len(ok.Messages) == 0 {
			return nil, &APIError{
				HTTPStatus: statusCode,
				Message:    "malformed success response",
				Cause:      err,
			}
		}

		return &SendResponse{
			HTTPStatus: statusCode,
			MessageID:  ok.Messages[0].ID,
		}, nil
	}

	var failure errorBody
	if err := json.Unmarshal(responseBody, &failure); err == nil && failure.Error.Code != 0 {
		return nil, &APIError{
			HTTPStatus: statusCode,
			Code:       failure.Error.Code,
			Subcode:    failure.Error.Subcode,
			Message:    failure.Error.Message,
		}
	}

	return nil, &APIError{
		HTTPStatus: statusCode,
		Message:    fmt.Sprintf("unexpected status %d: %s", statusCode, strings.TrimSpace(string(responseBody))),
	}
}
