package domain

import "time"

// Turn is a single question/answer exchange within a session.
type Turn struct {
	// Question is the user's question text.
	Question string

	// Answer is the synthesized answer text.
	Answer string

	// DocumentID is the document scope the question was asked against.
	DocumentID string

	// AskedAt is when the turn was recorded.
	AskedAt time.Time
}

// Session is a caller-scoped, ordered conversation history used to
// contextualize follow-up questions. Sessions are created lazily on
// first use and evicted whole when the session cap is exceeded.
type Session struct {
	// ID is the caller-supplied session identifier.
	ID string

	// Turns is the ordered history, oldest first.
	Turns []Turn

	// LastActive is when the session was last appended to or read.
	LastActive time.Time
}
