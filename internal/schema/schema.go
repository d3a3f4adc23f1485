// Package schema validates user records before they are sent to the backend.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"example.com/userdesk/internal/core"
)

const phoneTag = "phone"

// Schema is a compiled, immutable set of Rules.
type Schema struct {
	rules    Rules
	validate *validator.Validate
	phone    *regexp.Regexp
}

// New compiles rules into a Schema.
func New(rules Rules) (*Schema, error) {
	if err := rules.check(); err != nil {
		return nil, err
	}

	s := &Schema{rules: rules, validate: validator.New()}
	if rules.Phone.Mode == PhoneStrict {
		s.phone = phonePattern(rules.Phone)
	}
	err := s.validate.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return s.phone == nil || s.phone.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register phone validation: %w", err)
	}
	return s, nil
}

// MustDefault returns the Schema for DefaultRules.
func MustDefault() *Schema {
	s, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return s
}

func phonePattern(p PhoneRule) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	if len(p.CountryCodes) > 0 {
		codes := make([]string, len(p.CountryCodes))
		for i, cc := range p.CountryCodes {
			codes[i] = regexp.QuoteMeta(cc)
		}
		b.WriteString("(?:" + strings.Join(codes, "|") + ")?")
	}
	n := p.LocalDigits
	if p.LeadingDigits != "" {
		b.WriteString("[" + p.LeadingDigits + "]")
		n--
	}
	fmt.Fprintf(&b, `[0-9]{%d}$`, n)
	return regexp.MustCompile(b.String())
}

// Rules returns the rules the schema was compiled from.
func (s *Schema) Rules() Rules { return s.rules }

// Validate checks u and returns one message per invalid field. An empty
// result means u is valid. u is not modified.
func (s *Schema) Validate(u core.User) core.FieldErrors {
	errs := core.FieldErrors{}

	s.text(errs, core.FieldFirstName, "First name", u.FirstName, s.rules.FirstName)
	s.text(errs, core.FieldLastName, "Last name", u.LastName, s.rules.LastName)
	s.email(errs, u.Email)
	s.text(errs, core.FieldRole, "Role", u.Role, s.rules.Role)
	s.phoneField(errs, u.Phone)

	return errs
}

func (s *Schema) text(errs core.FieldErrors, field, label, value string, rule TextRule) {
	tags := []string{presence(rule.Required)}
	if rule.MinLength > 1 {
		tags = append(tags, fmt.Sprintf("min=%d", rule.MinLength))
	}
	switch s.failed(value, tags) {
	case "":
	case "required":
		errs[field] = requiredMessage(label, rule.Message)
	default:
		errs[field] = fmt.Sprintf("%s must be at least %d characters", label, rule.MinLength)
	}
}

func (s *Schema) email(errs core.FieldErrors, value string) {
	rule := s.rules.Email
	switch s.failed(value, []string{presence(rule.Required), "email"}) {
	case "":
	case "required":
		errs[core.FieldEmail] = requiredMessage("Email", rule.Message)
	default:
		errs[core.FieldEmail] = "Invalid email"
	}
}

func (s *Schema) phoneField(errs core.FieldErrors, value string) {
	rule := s.rules.Phone
	tags := []string{"required", phoneTag}
	if rule.Mode == PhoneLoose {
		tags = []string{"required", fmt.Sprintf("min=%d", rule.MinLength)}
	}
	switch s.failed(value, tags) {
	case "":
	case "required":
		errs[core.FieldPhone] = "Phone is required"
	default:
		errs[core.FieldPhone] = s.phoneMessage()
	}
}

func (s *Schema) phoneMessage() string {
	rule := s.rules.Phone
	if rule.Message != "" {
		return rule.Message
	}
	if rule.Mode == PhoneLoose {
		return fmt.Sprintf("Phone must be at least %d characters", rule.MinLength)
	}
	if len(rule.CountryCodes) == 0 {
		return fmt.Sprintf("Enter %d-digit number", rule.LocalDigits)
	}
	return fmt.Sprintf("Enter %d-digit number or %s followed by %d digits",
		rule.LocalDigits, strings.Join(rule.CountryCodes, " or "), rule.LocalDigits)
}

// failed runs the tags against the trimmed value and returns the first tag
// that did not pass, or "" when all passed.
func (s *Schema) failed(value string, tags []string) string {
	err := s.validate.Var(strings.TrimSpace(value), strings.Join(tags, ","))
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return "invalid"
}

func presence(required bool) string {
	if required {
		return "required"
	}
	return "omitempty"
}

func requiredMessage(label, override string) string {
	if override != "" {
		return override
	}
	return label + " is required"
}

// Normalize returns the record as it should be sent to the backend:
// surrounding whitespace trimmed and a leading country code removed from
// the phone number.
func (s *Schema) Normalize(u core.User) core.User {
	for _, f := range core.Fields {
		u = u.With(f, strings.TrimSpace(u.Get(f)))
	}
	u.Phone = s.stripCountryCode(u.Phone)
	return u
}

func (s *Schema) stripCountryCode(phone string) string {
	rule := s.rules.Phone
	for _, cc := range rule.CountryCodes {
		rest, ok := strings.CutPrefix(phone, cc)
		if ok && len(rest) == rule.LocalDigits && allDigits(rest) {
			return rest
		}
	}
	return phone
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Holder hands out the current Schema and lets a watcher swap it.
type Holder struct {
	cur atomic.Pointer[Schema]
}

func NewHolder(s *Schema) *Holder {
	h := &Holder{}
	h.cur.Store(s)
	return h
}

func (h *Holder) Load() *Schema   { return h.cur.Load() }
func (h *Holder) Store(s *Schema) { h.cur.Store(s) }

func (h *Holder) Validate(u core.User) core.FieldErrors { return h.Load().Validate(u) }
func (h *Holder) Normalize(u core.User) core.User       { return h.Load().Normalize(u) }
