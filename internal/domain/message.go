package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Recipient is an E.164 phone number: a leading + followed by 7-15 digits,
// no separators. It is never constructed without passing validation.
type Recipient string

func (r Recipient) String() string { return string(r) }

var recipientPattern = regexp.MustCompile(`^\+[0-9]{7,15}$`)

// ValidateRecipient checks E.164 shape and returns the input unchanged on
// success. Pure; calling it on its own output yields the same value.
func ValidateRecipient(raw string) (Recipient, error) {
	if !recipientPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: %q is not E.164", ErrInvalidFormat, raw)
	}
	return Recipient(raw), nil
}

// SenderID is the 15-digit phone number ID the messages endpoint is keyed
// by. The 16-digit business account ID is a different entity and must never
// be substituted for it.
type SenderID string

func (s SenderID) String() string { return string(s) }

const senderIDLength = 15

func ValidateSenderID(raw string) (SenderID, error) {
	if len(raw) != senderIDLength {
		return "", fmt.Errorf("%w: got %d characters, want %d", ErrWrongIdentifierType, len(raw), senderIDLength)
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w: %q contains non-digits", ErrWrongIdentifierType, raw)
		}
	}
	return SenderID(raw), nil
}

// Kind discriminates the active message variant.
type Kind string

const (
	KindText     Kind = "text"
	KindTemplate Kind = "template"
)

func (k Kind) String() string { return string(k) }

func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindTemplate:
		return true
	}
	return false
}

// OutboundMessage is a tagged variant: free-form text or a pre-approved
// template. Exactly one variant is active per message.
type OutboundMessage struct {
	Kind     Kind
	Body     string
	Template *TemplateContent
}

// TemplateContent names a pre-approved template and its ordered body
// parameters. Templates may be sent at any time.
type TemplateContent struct {
	Name       string
	Language   string
	Parameters []string
}

// NewTextMessage builds a free-form text message. Free-form sends are only
// permitted inside the customer-service window; BuildRequest enforces that.
func NewTextMessage(body string) OutboundMessage {
	return OutboundMessage{Kind: KindText, Body: body}
}

func NewTemplateMessage(name, language string, parameters ...string) OutboundMessage {
	return OutboundMessage{
		Kind: KindTemplate,
		Template: &TemplateContent{
			Name:       name,
			Language:   language,
			Parameters: parameters,
		},
	}
}

func (m OutboundMessage) Validate() error {
	if !m.Kind.IsValid() {
		return fmt.Errorf("%w: invalid message kind %q", ErrValidation, m.Kind)
	}

	switch m.Kind {
	case KindText:
		if strings.TrimSpace(m.Body) == "" {
			return fmt.Errorf("%w: text body is required", ErrValidation)
		}
		if m.Template != nil {
			return fmt.Errorf("%w: text message carries template content", ErrValidation)
		}
	case KindTemplate:
		if m.Template == nil {
			return fmt.Errorf("%w: template content is required", ErrValidation)
		}
		if strings.TrimSpace(m.Template.Name) == "" {
			return fmt.Errorf("%w: template name is required", ErrValidation)
		}
		if strings.TrimSpace(m.Template.Language) == "" {
			return fmt.Errorf("%w: template language is required", ErrValidation)
		}
		if m.Body != "" {
			return fmt.Errorf("%w: template message carries a text body", ErrValidation)
		}
	}

	return nil
}
