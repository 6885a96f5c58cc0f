package entity

import (
	"regexp"
	"strings"
	"time"

	authentity "github.com/shandysiswandi/portal/internal/auth/entity"
)

// MaxClockSkew bounds how far a client timestamp may drift from the server
// clock before it is replaced.
const MaxClockSkew = 24 * time.Hour

var reEventName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

func ValidEventName(name string) bool {
	return reEventName.MatchString(name)
}

type Event struct {
	Name       string
	Properties map[string]any
	SessionID  string
	UserID     string
	IP         string
	UserAgent  string
	Timestamp  time.Time
	ReceivedAt time.Time
}

// MaskProperties returns a copy of props where values under keys that carry
// a login identifier are replaced with their masked form.
func MaskProperties(props map[string]any) map[string]any {
	if len(props) == 0 {
		return nil
	}

	out := make(map[string]any, len(props))
	for k, v := range props {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}

		switch strings.ToLower(k) {
		case "email":
			out[k] = authentity.MaskEmail(s)
		case "phone", "telefono":
			out[k] = authentity.MaskPhone(s)
		case "identifier", "identificador":
			idn, err := authentity.ParseIdentifier(s)
			if err != nil {
				out[k] = "***"
				continue
			}
			out[k] = idn.Masked()
		default:
			out[k] = v
		}
	}

	return out
}
