package chatgpt

import (
	"encoding/json"
	"strings"
)

const (
	dataPrefix      = "data: "
	doneSentinel    = "[DONE]"
	faultSentinel   = "Internal Server Error"
	rateLimitDetail = "Too many requests in 1 hour. Try again later."
	invalidKeyCode  = "invalid_api_key"
)

type payloadContent struct {
	Parts []string `json:"parts"`
}

type payloadMetadata struct {
	ModelSlug string `json:"model_slug"`
}

type payloadMessage struct {
	ID       string          `json:"id"`
	Content  *payloadContent `json:"content"`
	Metadata payloadMetadata `json:"metadata"`
}

type streamPayload struct {
	ConversationID string          `json:"conversation_id"`
	Message        *payloadMessage `json:"message"`
	Detail         json.RawMessage `json:"detail"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// streamParser turns the raw line stream of a conversation response
// into message deltas. It is stateless apart from the prompt, which it
// needs to recognize and drop the server's echo of the user message.
type streamParser struct {
	prompt string
}

// parseLine interprets one line of the stream. It returns a delta when
// the line carries answer text, done=true when the stream announced
// completion, and a nil delta with done=false for lines that carry
// nothing (keep-alives, unparseable frames, the prompt echo).
func (p *streamParser) parseLine(line string) (delta *MessageDelta, done bool, err error) {
	if line == faultSentinel {
		return nil, false, serverError("OpenAI", faultSentinel)
	}
	if line == "" {
		return nil, false, nil
	}

	// The prefix is optional: error detail frames and sometimes the
	// completion sentinel arrive as bare bodies.
	data := strings.TrimPrefix(line, dataPrefix)
	if data == doneSentinel {
		return nil, true, nil
	}

	var payload streamPayload
	if jsonErr := json.Unmarshal([]byte(data), &payload); jsonErr != nil {
		// Partial frames and keep-alive noise are expected; skip them.
		return nil, false, nil
	}

	if payload.Message == nil || payload.Message.Content == nil {
		if sideErr := sideChannelError(payload.Detail); sideErr != nil {
			return nil, false, sideErr
		}
		return nil, false, serverError("OpenAI", "response is missing the message content field")
	}
	if len(payload.Message.Content.Parts) == 0 {
		return nil, false, serverError("OpenAI", "response message has no content parts")
	}

	text := payload.Message.Content.Parts[0]
	if text == p.prompt {
		return nil, false, nil
	}

	return &MessageDelta{
		Text:           text,
		ConversationID: payload.ConversationID,
		ParentID:       payload.Message.ID,
		Model:          payload.Message.Metadata.ModelSlug,
	}, false, nil
}

// sideChannelError classifies the "detail" field some error frames
// carry instead of a message. The rate limit detail is a bare string;
// credential rejections come as an object with a code.
func sideChannelError(detail json.RawMessage) error {
	if len(detail) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(detail, &asString); err == nil {
		if asString == rateLimitDetail {
			return &Error{Source: "OpenAI", Message: asString, Code: CodeRateLimit}
		}
		return serverError("OpenAI", asString)
	}

	var asObject errorDetail
	if err := json.Unmarshal(detail, &asObject); err == nil {
		if asObject.Code == invalidKeyCode {
			return &Error{Source: "OpenAI", Message: asObject.Message, Code: CodeInvalidRequest}
		}
		return serverError("OpenAI", asObject.Message)
	}

	return serverError("OpenAI", string(detail))
}
