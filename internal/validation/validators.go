package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tabwatch/tabwatch/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("signal_kind", validateSignalKind); err != nil {
		panic(fmt.Sprintf("failed to register signal_kind validator: %v", err))
	}
	if err := Validate.RegisterValidation("message_action", validateMessageAction); err != nil {
		panic(fmt.Sprintf("failed to register message_action validator: %v", err))
	}
}

// validateSignalKind validates that a string is a valid SignalKind enum value
func validateSignalKind(fl validator.FieldLevel) bool {
	switch models.SignalKind(fl.Field().String()) {
	case models.SignalActivity, models.SignalIdle, models.SignalVisibility:
		return true
	default:
		return false
	}
}

// validateMessageAction validates that a string is a known message action
func validateMessageAction(fl validator.FieldLevel) bool {
	return models.Action(fl.Field().String()).Known()
}

// SanitizeTitle sanitizes a page title by trimming whitespace and removing control characters
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)

	var sanitized strings.Builder
	for _, r := range title {
		if unicode.IsControl(r) {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateSignalKind validates a SignalKind string value
func ValidateSignalKind(value string) error {
	switch models.SignalKind(value) {
	case models.SignalActivity, models.SignalIdle, models.SignalVisibility:
		return nil
	default:
		return fmt.Errorf("invalid signal kind: %s (must be 'activity', 'idle', or 'visibility')", value)
	}
}

// ValidateAction validates a message action string value
func ValidateAction(value string) error {
	if !models.Action(value).Known() {
		return fmt.Errorf("unknown action: %s", value)
	}
	return nil
}
