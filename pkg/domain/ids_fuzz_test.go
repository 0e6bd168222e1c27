package domain

import (
	"testing"

	"github.com/google/uuid"
)

// FuzzParseSessionID checks that parsing never panics on arbitrary input
// and always returns either a valid ID or an error, never both.
func FuzzParseSessionID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		parsed, err := ParseSessionID(input)
		if err != nil {
			if uuid.UUID(parsed) != uuid.Nil {
				t.Fatalf("error with non-zero ID for input %q", input)
			}
			return
		}
		if _, reparseErr := ParseSessionID(parsed.String()); reparseErr != nil {
			t.Fatalf("canonical form does not reparse for input %q", input)
		}
	})
}
