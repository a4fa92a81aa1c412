package backend

import "strconv"

// MessageRequest is the body of POST /api/chat/message.
type MessageRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// MessageResponse carries the assistant's reply.
type MessageResponse struct {
	Reply string `json:"reply"`
}

// BookRequest is the body of POST /api/chat/book. Optional fields are omitted when empty.
type BookRequest struct {
	SessionID string `json:"session_id"`
	StartISO  string `json:"start_iso"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
}

// BookResponse is whatever the booking endpoint answered. An empty HTMLLink means the
// booking did not go through.
type BookResponse struct {
	HTMLLink   string `json:"htmlLink"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"-"`
}

// Reason summarizes why a response without a link was rejected.
func (r BookResponse) Reason() string {
	switch {
	case r.Detail != "":
		return r.Detail
	case r.Error != "":
		return r.Error
	case r.StatusCode != 0:
		return "status " + strconv.Itoa(r.StatusCode)
	default:
		return "missing htmlLink"
	}
}
