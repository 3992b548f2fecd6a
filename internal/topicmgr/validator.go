package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLength   = 100
	maxModuleLength = 50
)

var reservedPrefixes = []string{"internal.", "debug."}

// Validator checks topic definitions against the catalog naming rules.
type Validator struct {
	namePattern   *regexp.Regexp
	modulePattern *regexp.Regexp
}

// NewValidator creates a new topic validator
func NewValidator() *Validator {
	// Topic names are camelCase words, optionally namespaced with dots:
	// currentTheme, userProfile, orders.orderSubmitted.
	return &Validator{
		namePattern:   regexp.MustCompile(`^[a-z][a-zA-Z0-9]*(\.[a-z][a-zA-Z0-9]*)*$`),
		modulePattern: regexp.MustCompile(`^[a-z][a-z0-9_-]*$`),
	}
}

// ValidateDefinition validates a topic definition
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}

	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}

	if topic.Version() < 1 {
		return fmt.Errorf("topic version must be at least 1, got %d", topic.Version())
	}

	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topics should not have a module")
		}
	case ScopeModule:
		if err := v.validateModuleName(topic.Module()); err != nil {
			return fmt.Errorf("module topic validation failed: %w", err)
		}
	default:
		return fmt.Errorf("invalid topic scope: %q", topic.Scope())
	}

	return nil
}

// ValidateName checks if a topic name follows the naming convention
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > maxNameLength {
		return fmt.Errorf("name too long (max %d characters)", maxNameLength)
	}

	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("name must be camelCase words separated by dots, got %q", name)
	}

	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("name cannot start with reserved prefix: %s", prefix)
		}
	}

	return nil
}

func (v *Validator) validateModuleName(module string) error {
	if strings.TrimSpace(module) == "" {
		return fmt.Errorf("module topics must specify a module")
	}

	if len(module) > maxModuleLength {
		return fmt.Errorf("module name too long (max %d characters)", maxModuleLength)
	}

	if !v.modulePattern.MatchString(module) {
		return fmt.Errorf("module name must be lowercase alphanumeric with dashes or underscores")
	}

	return nil
}
