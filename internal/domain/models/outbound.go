package models

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// ReplyButton is a quick-reply button attached to an outbound WhatsApp message.
// The ID comes back in the webhook when the seller taps it.
type ReplyButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CommandUsage describes how a seller command is typed, used for help replies.
type CommandUsage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
