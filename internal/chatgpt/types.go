package chatgpt

import "time"

// MessageDelta is one streamed update of an in-progress answer. Text is
// the full answer accumulated so far, not an increment.
type MessageDelta struct {
	Text           string
	ConversationID string
	ParentID       string
	Model          string
}

// AskEvent is one item from the channel form of Ask. Exactly one of
// Delta and Err is set; an Err event is always the last one sent.
type AskEvent struct {
	Delta *MessageDelta
	Err   error
}

// AskOptions override the client's tracked conversation position and
// timeout for a single request.
type AskOptions struct {
	ConversationID string
	ParentID       string
	Timeout        time.Duration
}

type askContent struct {
	ContentType string   `json:"content_type"`
	Parts       []string `json:"parts"`
}

type askMessage struct {
	ID      string     `json:"id"`
	Role    string     `json:"role"`
	Content askContent `json:"content"`
}

type askRequest struct {
	Action          string       `json:"action"`
	Messages        []askMessage `json:"messages"`
	ConversationID  *string      `json:"conversation_id"`
	ParentMessageID string       `json:"parent_message_id"`
	Model           string       `json:"model"`
}

// Conversation is one entry from the conversation list endpoint.
type Conversation struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type conversationsPage struct {
	Items []Conversation `json:"items"`
}

// ConversationHistory is the full server-side record of a conversation.
// CurrentNode is the id of its latest message.
type ConversationHistory struct {
	Title       string                 `json:"title"`
	CurrentNode string                 `json:"current_node"`
	Mapping     map[string]interface{} `json:"mapping"`
}
