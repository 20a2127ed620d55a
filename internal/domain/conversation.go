package domain

import "strings"

// RoleUser is the conversation role whose final turn drives retrieval.
const RoleUser = "user"

// Turn is one message in a conversation.
type Turn struct {
	Role    string
	Content string
}

// LastUserQuery extracts the query text from a conversation: the final turn
// must have role "user" and non-empty content. Any other shape means there is
// nothing to search for, which is a caller contract rather than a fault.
func LastUserQuery(turns []Turn) (string, bool) {
	if len(turns) == 0 {
		return "", false
	}
	last := turns[len(turns)-1]
	if last.Role != RoleUser || strings.TrimSpace(last.Content) == "" {
		return "", false
	}
	return last.Content, true
}
