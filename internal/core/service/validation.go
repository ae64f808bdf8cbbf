package service

import (
	"fmt"
	"strings"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

var passwordRule = fmt.Sprintf("required,min=%d", MinPasswordLength)

type field struct {
	name  string
	value string
	rules string
}

// checkFields validates each field and reports every failure in one
// domain.ErrValidation.
func (s *AuthService) checkFields(fields ...field) error {
	var msgs []string
	for _, f := range fields {
		if err := s.validate.Var(f.value, f.rules); err != nil {
			msgs = append(msgs, fieldMessage(f.name, f.rules))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(name, rules string) string {
	switch {
	case strings.Contains(rules, "email"):
		return name + " must be a valid email"
	case strings.Contains(rules, "min="):
		return fmt.Sprintf("%s must be at least %d characters", name, MinPasswordLength)
	default:
		return name + " is required"
	}
}
