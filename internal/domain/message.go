package domain

import "time"

// EmailMessage is the fully-resolved message ready for a transport.
// By the time a message reaches this struct, all template substitution
// and tracking injection is complete.
type EmailMessage struct {
	To        string `json:"to"`
	FromName  string `json:"from_name"`
	FromEmail string `json:"from_email"`
	ReplyTo   string `json:"reply_to,omitempty"`
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
	Text      string `json:"text"`
}

// SendResult is returned by a transport after attempting delivery.
// The engine only inspects Success; provider-specific codes stay in
// Error as free text.
type SendResult struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id,omitempty"`
	SentAt    time.Time `json:"sent_at"`
	Error     string    `json:"error,omitempty"`
}
