package sms

import "context"

// Provider delivers transactional SMS. The auth service uses it for one-time
// login codes only, so the surface is a single send.
type Provider interface {
	SendSMS(ctx context.Context, request *Request) (*Response, error)
}

type Request struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
	Type    string `json:"type"` // transactional, otp
}

type Response struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
