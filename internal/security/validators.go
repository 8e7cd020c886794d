package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Input length constraints
const (
	MaxSessionNameLength     = 100
	MaxParticipantNameLength = 50
	MaxParticipantIDLength   = 128
	MaxMeetingIDLength       = 128
	MinNameLength            = 1
)

var (
	// PocketBase ID regex - 15 character alphanumeric
	pocketbaseIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{15}$`)
	uuidRegex         = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// SDK identifiers: letters, digits and a few separators
	externalIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-:.@]+$`)
	// Name validation regex - Unicode letters, digits, spaces, apostrophes, hyphens, underscores, dots
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.]+$`)
	// Dangerous characters that could be used for injection attacks
	dangerousCharsRegex = regexp.MustCompile(`[<>{}[\]\\;|&$()` + "`" + `]`)
)

// ValidateRecordID validates that a string is a valid PocketBase ID or UUID
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}

	if pocketbaseIDRegex.MatchString(id) {
		return nil
	}

	if uuidRegex.MatchString(strings.ToLower(id)) {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("malformed UUID: %w", err)
		}
		return nil
	}

	return fmt.Errorf("invalid ID format (expected 15-character PocketBase ID or UUID)")
}

// ValidateParticipantID validates an identifier handed out by the
// conferencing SDK. Only the character set and length are checked; the
// format is the SDK's business.
func ValidateParticipantID(id string) error {
	return validateExternalID("participant", id, MaxParticipantIDLength)
}

// ValidateMeetingID validates the SDK meeting identifier a session is bound to.
func ValidateMeetingID(id string) error {
	return validateExternalID("meeting", id, MaxMeetingIDLength)
}

func validateExternalID(kind, id string, maxLen int) error {
	if id == "" {
		return fmt.Errorf("%s ID cannot be empty", kind)
	}
	if len(id) > maxLen {
		return fmt.Errorf("%s ID too long (max %d characters)", kind, maxLen)
	}
	if !externalIDRegex.MatchString(id) {
		return fmt.Errorf("%s ID contains invalid characters", kind)
	}
	return nil
}

// ValidateName validates a name string with length and character constraints
// Returns sanitized name and error if validation fails
func ValidateName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}

	if utf8.RuneCountInString(name) < MinNameLength {
		return "", fmt.Errorf("name too short (min %d characters)", MinNameLength)
	}

	if utf8.RuneCountInString(name) > maxLen {
		return "", fmt.Errorf("name too long (max %d characters)", maxLen)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("name contains control characters")
		}
	}

	if dangerousCharsRegex.MatchString(name) {
		return "", fmt.Errorf("name contains potentially dangerous characters")
	}

	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("name contains invalid characters (allowed: letters, numbers, spaces, apostrophes, hyphens, underscores, dots)")
	}

	return name, nil
}

// ValidateSessionName validates a recording session name
func ValidateSessionName(name string) (string, error) {
	return ValidateName(name, MaxSessionNameLength)
}

// SanitizeDisplayName cleans a display name coming from the SDK. Unlike
// ValidateName it never fails: control characters are dropped and the result
// is cut to MaxParticipantNameLength runes.
func SanitizeDisplayName(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsControl(r) || r == utf8.RuneError {
			continue
		}
		if n == MaxParticipantNameLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}

// SanitizeErrorMessage removes sensitive information from error messages
// Returns a generic user-friendly error message
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	sensitivePatterns := []string{
		"sql",
		"database",
		"record",
		"collection",
		"pocketbase",
		"constraint",
		"foreign key",
		"unique",
		"duplicate key",
		"no rows",
	}

	for _, pattern := range sensitivePatterns {
		if strings.Contains(errStr, pattern) {
			return "An error occurred while processing your request"
		}
	}

	return err.Error()
}
