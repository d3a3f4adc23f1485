package schema

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Phone validation modes.
const (
	PhoneStrict = "strict"
	PhoneLoose  = "loose"
)

// Rules configures the validator. The zero value is not useful; start from
// DefaultRules and override.
type Rules struct {
	FirstName TextRule  `yaml:"firstName"`
	LastName  TextRule  `yaml:"lastName"`
	Email     TextRule  `yaml:"email"`
	Role      TextRule  `yaml:"role"`
	Phone     PhoneRule `yaml:"phone"`
}

// TextRule is a presence and length rule for a free-text field.
type TextRule struct {
	Required  bool `yaml:"required"`
	MinLength int  `yaml:"minLength,omitempty"`
	// Message replaces the "is required" message.
	Message string `yaml:"message,omitempty"`
}

// PhoneRule controls phone validation and normalization.
type PhoneRule struct {
	Mode         string   `yaml:"mode"`
	CountryCodes []string `yaml:"countryCodes,omitempty"`
	LocalDigits  int      `yaml:"localDigits,omitempty"`
	// LeadingDigits is a character range for the first local digit, e.g. "6-9".
	LeadingDigits string `yaml:"leadingDigits,omitempty"`
	// MinLength applies in loose mode.
	MinLength int    `yaml:"minLength,omitempty"`
	Message   string `yaml:"message,omitempty"`
}

// DefaultRules returns the canonical schema: role required, strict phone
// check with an optional +91 prefix.
func DefaultRules() Rules {
	return Rules{
		FirstName: TextRule{Required: true, MinLength: 2},
		LastName:  TextRule{Required: true, MinLength: 2},
		Email:     TextRule{Required: true},
		Role:      TextRule{Required: true, MinLength: 2},
		Phone: PhoneRule{
			Mode:         PhoneStrict,
			CountryCodes: []string{"+91"},
			LocalDigits:  10,
			MinLength:    5,
		},
	}
}

var (
	countryCodePattern = regexp.MustCompile(`^\+?[0-9]{1,4}$`)
	digitRangePattern  = regexp.MustCompile(`^[0-9](-[0-9])?$`)
)

func (r Rules) check() error {
	switch r.Phone.Mode {
	case PhoneStrict:
		if r.Phone.LocalDigits <= 0 {
			return fmt.Errorf("phone.localDigits must be positive")
		}
		for _, cc := range r.Phone.CountryCodes {
			if !countryCodePattern.MatchString(cc) {
				return fmt.Errorf("phone.countryCodes: bad country code %q", cc)
			}
		}
		if r.Phone.LeadingDigits != "" && !digitRangePattern.MatchString(r.Phone.LeadingDigits) {
			return fmt.Errorf("phone.leadingDigits: bad digit range %q", r.Phone.LeadingDigits)
		}
	case PhoneLoose:
	default:
		return fmt.Errorf("phone.mode: unknown mode %q", r.Phone.Mode)
	}
	return nil
}

// LoadFile reads rules from a YAML file. Keys missing from the file keep
// their default. An empty path yields DefaultRules.
func LoadFile(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read schema rules: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse schema rules %s: %w", path, err)
	}
	if err := rules.check(); err != nil {
		return Rules{}, fmt.Errorf("schema rules %s: %w", path, err)
	}
	return rules, nil
}
