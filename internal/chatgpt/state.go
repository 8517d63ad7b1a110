package chatgpt

import (
	"fmt"

	"github.com/google/uuid"
)

// conversationState tracks where the next message attaches: the current
// conversation id and parent message id, the per-conversation map of
// latest message ids, and the rollback history of previous positions.
type conversationState struct {
	conversationID string
	parentID       string

	// mapping remembers the latest message id of every conversation the
	// client has seen, keyed by conversation id.
	mapping map[string]string

	// resyncTried marks conversation ids for which a server resync was
	// already attempted, so an unknown id only triggers one.
	resyncTried map[string]bool

	historyConversationIDs []string
	historyParentIDs       []string
}

func newConversationState(conversationID, parentID string) *conversationState {
	return &conversationState{
		conversationID: conversationID,
		parentID:       parentID,
		mapping:        make(map[string]string),
		resyncTried:    make(map[string]bool),
	}
}

// push saves the resolved position of an outgoing request to the
// rollback history. Called once per request, before it is sent,
// whatever the outcome.
func (s *conversationState) push(conversationID, parentID string) {
	s.historyConversationIDs = append(s.historyConversationIDs, conversationID)
	s.historyParentIDs = append(s.historyParentIDs, parentID)
}

// commit records the ids the server reported for a completed exchange.
func (s *conversationState) commit(conversationID, parentID string) {
	if conversationID != "" {
		s.conversationID = conversationID
		if parentID != "" {
			s.mapping[conversationID] = parentID
		}
	}
	if parentID != "" {
		s.parentID = parentID
	}
}

// rollback undoes the last n exchanges by restoring saved positions.
func (s *conversationState) rollback(n int) error {
	if n < 1 {
		return userError(fmt.Sprintf("rollback count must be positive, got %d", n))
	}
	if n > len(s.historyParentIDs) {
		return userError(fmt.Sprintf("cannot roll back %d messages, only %d in history", n, len(s.historyParentIDs)))
	}

	for i := 0; i < n; i++ {
		last := len(s.historyParentIDs) - 1
		s.conversationID = s.historyConversationIDs[last]
		s.parentID = s.historyParentIDs[last]
		s.historyConversationIDs = s.historyConversationIDs[:last]
		s.historyParentIDs = s.historyParentIDs[:last]
	}
	return nil
}

// reset abandons the current conversation. The fresh parent id seeds
// the next exchange, which the server treats as a new conversation.
func (s *conversationState) reset() {
	s.conversationID = ""
	s.parentID = uuid.NewString()
}
