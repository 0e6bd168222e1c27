// Package mrz decodes TD3 machine readable zones (ICAO 9303, two lines of
// 44 characters) into structured passport fields.
//
// Decoding is best effort: only missing lines are fatal. Malformed or short
// sub-fields degrade to raw or empty values, because partially readable MRZ
// data is still useful on the verification form.
package mrz

import (
	"fmt"
	"strconv"
	"strings"

	derrors "pkdconsole/pkg/domain-errors"
)

// ErrInsufficientLines is returned when the input holds fewer than the two
// lines TD3 requires.
var ErrInsufficientLines = derrors.New(derrors.CodeInvalidInput, "mrz input requires at least two lines")

const filler = '<'

// Record is a decoded TD3 MRZ. It is immutable once returned.
type Record struct {
	DocumentType   string `json:"document_type"`
	IssuingCountry string `json:"issuing_country"`
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	FullName       string `json:"full_name"`
	DocumentNumber string `json:"document_number"`
	Nationality    string `json:"nationality"`
	DateOfBirth    string `json:"date_of_birth"`
	Sex            string `json:"sex"`
	DateOfExpiry   string `json:"date_of_expiry"`

	// The raw lines as received, kept for resubmission in the verification
	// payload and for operator display.
	Line1 string `json:"mrz_line1"`
	Line2 string `json:"mrz_line2"`
}

// Decode parses raw MRZ text. Only the first two lines are used; later
// lines are ignored. Lines shorter than the TD3 fixed offsets are not
// rejected, extraction clamps to the available characters.
func Decode(text string) (*Record, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return nil, ErrInsufficientLines
	}
	line1, line2 := lines[0], lines[1]

	rec := &Record{
		DocumentType:   stripFiller(slice(line1, 0, 2)),
		IssuingCountry: stripFiller(slice(line1, 2, 5)),
		DocumentNumber: stripFiller(slice(line2, 0, 9)),
		Nationality:    stripFiller(slice(line2, 10, 13)),
		DateOfBirth:    decodeDate(slice(line2, 13, 19)),
		Sex:            stripFiller(slice(line2, 20, 21)),
		DateOfExpiry:   decodeDate(slice(line2, 21, 27)),
		Line1:          line1,
		Line2:          line2,
	}

	rec.Surname, rec.GivenNames = splitName(slice(line1, 5, len(line1)))
	rec.FullName = strings.TrimSpace(rec.GivenNames + " " + rec.Surname)

	return rec, nil
}

// splitName separates the TD3 name field into surname and given names.
// The double filler "<<" is the separator; single fillers are spaces
// within a name segment.
func splitName(field string) (surname, given string) {
	parts := strings.SplitN(field, "<<", 2)
	surname = normalizeName(parts[0])
	if len(parts) > 1 {
		given = normalizeName(parts[1])
	}
	return surname, given
}

func normalizeName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, string(filler), " "))
}

// decodeDate converts a YYMMDD field into YYYY-MM-DD. Two-digit years above
// 30 resolve to the 1900s, everything else to the 2000s; the same rule is
// applied to birth and expiry dates. Inputs that are not six digits are
// returned unmodified rather than failing the whole record.
func decodeDate(raw string) string {
	if len(raw) != 6 {
		return raw
	}
	year, err := strconv.Atoi(raw[0:2])
	if err != nil {
		return raw
	}
	month, err := strconv.Atoi(raw[2:4])
	if err != nil {
		return raw
	}
	day, err := strconv.Atoi(raw[4:6])
	if err != nil {
		return raw
	}
	if year > 30 {
		year += 1900
	} else {
		year += 2000
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// slice returns line[start:end] clamped to the line length, so short lines
// degrade to truncated or empty fields instead of panicking.
func slice(line string, start, end int) string {
	if start > len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}

func stripFiller(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, string(filler), ""))
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
