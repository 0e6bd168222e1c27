// Package domain holds the typed identifiers shared across the console.
//
// IDs are distinct types over uuid.UUID so a session ID can never be passed
// where a submission token is expected. Conversions are explicit.
package domain

import "github.com/google/uuid"

// SessionID identifies one verification session owned by an operator.
type SessionID uuid.UUID

// SubmissionID tags a single verifier submission within a session. A new one
// is allocated per submit (and per reset) so stale async completions can be
// recognized and discarded.
type SubmissionID uuid.UUID

// OperatorID identifies the authenticated console operator.
type OperatorID uuid.UUID

// NewSessionID allocates a random session ID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewSubmissionID allocates a random submission token.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

func (id SessionID) String() string    { return uuid.UUID(id).String() }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id OperatorID) String() string   { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id SessionID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id OperatorID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

// ParseSessionID parses a session ID from its string form.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

// MarshalText implements encoding.TextMarshaler so IDs serialize as plain
// UUID strings in JSON payloads.
func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SessionID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = SessionID(u)
	return nil
}

func (id SubmissionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SubmissionID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = SubmissionID(u)
	return nil
}

func (id OperatorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *OperatorID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = OperatorID(u)
	return nil
}
