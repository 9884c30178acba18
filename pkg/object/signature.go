package object

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var signaturePattern = regexp.MustCompile(`^(.*) <([^<>]*)> (-?[0-9]+) (\S+)$`)

// ParseSignature parses "name <email> timestamp tz".
func ParseSignature(s string) (Signature, error) {
	m := signaturePattern.FindStringSubmatch(s)
	if m == nil {
		return Signature{}, fmt.Errorf("%w: %q", ErrMalformedStamp, s)
	}
	ts, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedStamp, m[3], err)
	}
	return Signature{
		Name:      m[1],
		Email:     m[2],
		Timestamp: ts,
		Timezone:  m[4],
	}, nil
}

func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.Timestamp, s.Timezone)
}

// When returns the stamp as a time in its recorded zone. An unparsable zone
// falls back to UTC.
func (s Signature) When() time.Time {
	t := time.Unix(s.Timestamp, 0)
	if loc, ok := parseTimezone(s.Timezone); ok {
		return t.In(loc)
	}
	return t.UTC()
}

// parseTimezone parses offsets of the form +hhmm / -hhmm.
func parseTimezone(tz string) (*time.Location, bool) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return nil, false
	}
	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return nil, false
	}
	minutes, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return nil, false
	}
	offset := hours*3600 + minutes*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(tz, offset), true
}
