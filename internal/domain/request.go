package domain

import (
	"errors"
	"fmt"
	"time"
)

// ServiceWindow is how long after the last inbound message a free-form send
// is still permitted. Outside it the caller must fall back to a template.
const ServiceWindow = 24 * time.Hour

// SendContext is the immutable per-send bundle: who to reach, which phone
// number ID to send from, and when the recipient last wrote in (absent for
// recipients who never initiated contact).
type SendContext struct {
	Recipient     Recipient
	SenderID      SenderID
	LastInboundAt *time.Time
}

// NewSendContext validates all inputs. lastInbound is an RFC 3339 timestamp
// with an explicit UTC offset, or empty when no inbound message exists.
func NewSendContext(recipient, senderID, lastInbound string) (SendContext, error) {
	to, err := ValidateRecipient(recipient)
	if err != nil {
		return SendContext{}, err
	}

	from, err := ValidateSenderID(senderID)
	if err != nil {
		return SendContext{}, err
	}

	ctx := SendContext{Recipient: to, SenderID: from}
	if lastInbound == "" {
		return ctx, nil
	}

	ts, err := ParseLastInbound(lastInbound)
	if err != nil {
		return SendContext{}, err
	}
	ctx.LastInboundAt = &ts

	return ctx, nil
}

// naiveLayouts are timestamp shapes that parse but carry no offset. They are
// rejected outright: comparing a naive timestamp against the service window
// is undefined and must not be coerced to a guessed zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseLastInbound parses an RFC 3339 timestamp, failing with
// ErrMissingTimezone for naive datetimes before any window math happens.
func ParseLastInbound(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return ts, nil
	}

	for _, layout := range naiveLayouts {
		if _, naiveErr := time.Parse(layout, raw); naiveErr == nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrMissingTimezone, raw)
		}
	}

	return time.Time{}, fmt.Errorf("%w: cannot parse timestamp %q", ErrValidation, raw)
}

// Request is a structurally complete messages-endpoint call: the path key
// plus the JSON payload. It only exists for inputs that passed validation.
type Request struct {
	SenderID  SenderID
	Recipient Recipient
	Payload   Payload
}

// Payload mirrors the messages-endpoint body. Exactly one of Text or
// Template is set, matching the "type" field.
type Payload struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *TextPayload     `json:"text,omitempty"`
	Template         *TemplatePayload `json:"template,omitempty"`
}

type TextPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type TemplatePayload struct {
	Name       string             `json:"name"`
	Language   LanguagePayload    `json:"language"`
	Components []ComponentPayload `json:"components,omitempty"`
}

type LanguagePayload struct {
	Code string `json:"code"`
}

type ComponentPayload struct {
	Type       string             `json:"type"`
	Parameters []ParameterPayload `json:"parameters"`
}

type ParameterPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BuildRequest assembles the outbound request. Free-form text requires the
// service window to be open: a missing last-inbound timestamp or one older
// than 24 hours fails with ErrWindowClosed, and the caller must explicitly
// supply a template fallback instead.
func BuildRequest(sendCtx SendContext, msg OutboundMessage, now time.Time) (*Request, error) {
	if sendCtx.Recipient == "" || sendCtx.SenderID == "" {
		return nil, fmt.Errorf("%w: send context is incomplete", ErrValidation)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	payload := Payload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               sendCtx.Recipient.String(),
		Type:             msg.Kind.String(),
	}

	switch msg.Kind {
	case KindText:
		if err := checkWindow(sendCtx, now); err != nil {
			return nil, err
		}
		payload.Text = &TextPayload{Body: msg.Body}
	case KindTemplate:
		payload.Template = templatePayload(*msg.Template)
	}

	return &Request{
		SenderID:  sendCtx.SenderID,
		Recipient: sendCtx.Recipient,
		Payload:   payload,
	}, nil
}

func checkWindow(sendCtx SendContext, now time.Time) error {
	if sendCtx.LastInboundAt == nil {
		return fmt.Errorf("%w: no inbound message on record", ErrWindowClosed)
	}

	closesAt := sendCtx.LastInboundAt.Add(ServiceWindow)
	if !now.Before(closesAt) {
		return fmt.Errorf("%w: window closed at %s", ErrWindowClosed, closesAt.Format(time.RFC3339))
	}

	return nil
}

func templatePayload(t TemplateContent) *TemplatePayload {
	p := &TemplatePayload{
		Name:     t.Name,
		Language: LanguagePayload{Code: t.Language},
	}

	if len(t.Parameters) == 0 {
		return p
	}

	params := make([]ParameterPayload, 0, len(t.Parameters))
	for _, value := range t.Parameters {
		params = append(params, ParameterPayload{Type: "text", Text: value})
	}
	p.Components = []ComponentPayload{{Type: "body", Parameters: params}}

	return p
}

// IsWindowClosed reports whether err is the window-closed failure, so
// callers can branch to a template fallback.
func IsWindowClosed(err error) bool {
	return errors.Is(err, ErrWindowClosed)
}
