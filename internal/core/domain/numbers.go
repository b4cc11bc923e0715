package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Number prefixes for generated record numbers
const (
	PolicyNumberPrefix = "POL"
	ClaimNumberPrefix  = "CLM"
)

var numberRx = regexp.MustCompile(`^[A-Z]{3}-\d{8}-[A-Z0-9]{6}$`)

// NewNumber generates PREFIX-YYYYMMDD-XXXXXX where XXXXXX is uppercase
// alphanumeric. Uniqueness is enforced by the store; callers retry on collision.
func NewNumber(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return prefix + "-" + at.Format("20060102") + "-" + suffix
}

// ValidNumber reports whether s is a well-formed record number with the prefix
func ValidNumber(prefix, s string) bool {
	return strings.HasPrefix(s, prefix+"-") && numberRx.MatchString(s)
}
