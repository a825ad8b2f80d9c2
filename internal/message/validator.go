// Package message validates display text against the static character class
// and the dynamic icon allow-list. A message is scanned once, left to right;
// every offending position is reported, so a single round trip gives the
// caller the complete diagnostic.
package message

import (
	"github.com/glowsign/display-app/internal/policy"
)

// Violation reasons. These values appear verbatim in problem documents, so
// they are part of the external contract.
const (
	ReasonDisallowedCharacter = "disallowed_character"
	ReasonUnknownIconCode     = "unknown_icon_code"
	ReasonMessageRequired     = "message_required"
)

// Violation records one offending region of a message. Position is a rune
// offset into the original message; Excerpt is the offending text.
type Violation struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
	Excerpt  string `json:"excerpt"`
}

// Result is the outcome of validating one message. An empty violation list
// means the message is renderable as-is. Units is the display-unit count of
// the scanned message: a recognized icon token renders as one glyph, every
// other rune as one.
type Result struct {
	Violations []Violation
	Units      int
}

// Accepted reports whether the message passed validation.
func (r Result) Accepted() bool {
	return len(r.Violations) == 0
}

// IconSet is the view of the icon registry a validation needs: membership
// checks against one immutable snapshot.
type IconSet interface {
	Has(code string) bool
}

// Syntax describes the icon token delimiters. The upstream badge firmware
// delimits icon names with colons (":star:"), which is the default; both
// runes are configurable because the marker syntax is deployment-specific.
type Syntax struct {
	Open       rune
	Close      rune
	MaxCodeLen int // maximum icon code length in runes
}

// DefaultSyntax returns the upstream colon-delimited token syntax.
func DefaultSyntax() Syntax {
	return Syntax{Open: ':', Close: ':', MaxCodeLen: 32}
}

// Validator classifies display messages. It is stateless apart from its
// configuration and safe for concurrent use; the icon snapshot is supplied
// per call so every validation sees one consistent allow-list.
type Validator struct {
	policy *policy.CharacterClass
	syntax Syntax
}

// NewValidator creates a validator over the given character class and icon
// token syntax.
func NewValidator(p *policy.CharacterClass, syntax Syntax) *Validator {
	return &Validator{policy: p, syntax: syntax}
}

// Syntax returns the icon token syntax the validator scans with, so the
// gateway can advertise icon codes in the same form it accepts them.
func (v *Validator) Syntax() Syntax {
	return v.syntax
}

// Validate scans msg against the character class and the icon snapshot.
// Violations are returned in strictly increasing position order and the scan
// never stops at the first failure. Validating the same message against the
// same snapshot always yields the same result.
func (v *Validator) Validate(msg string, iconSet IconSet) Result {
	runes := []rune(msg)

	if len(runes) == 0 {
		if v.policy.AllowEmpty() {
			return Result{}
		}
		return Result{Violations: []Violation{
			{Position: 0, Reason: ReasonMessageRequired, Excerpt: ""},
		}}
	}

	var violations []Violation
	units := 0
	i := 0
	for i < len(runes) {
		if runes[i] == v.syntax.Open {
			next, viol := v.scanIconToken(runes, i, iconSet)
			if viol == nil || viol.Reason == ReasonUnknownIconCode {
				units++ // a recognized token renders as one glyph
			} else {
				units += next - i
			}
			if viol != nil {
				violations = append(violations, *viol)
			}
			i = next
			continue
		}

		if !v.policy.Allowed(runes[i]) {
			violations = append(violations, Violation{
				Position: i,
				Reason:   ReasonDisallowedCharacter,
				Excerpt:  string(runes[i]),
			})
		}
		units++
		i++
	}

	return Result{Violations: violations, Units: units}
}

// scanIconToken consumes a candidate icon token starting at the opening
// delimiter at runes[start]. It returns the index to resume scanning at and,
// when the token is unknown or malformed, the violation to record.
//
// A well-formed token is Open, 1..MaxCodeLen icon-code runes, Close. A
// malformed token (empty code, oversized code, stray code rune, or no
// closing delimiter before end of input) yields a single
// disallowed_character violation spanning the malformed region.
func (v *Validator) scanIconToken(runes []rune, start int, iconSet IconSet) (int, *Violation) {
	j := start + 1
	for j < len(runes) && isCodeRune(runes[j]) && j-start-1 < v.syntax.MaxCodeLen {
		j++
	}

	if j < len(runes) && runes[j] == v.syntax.Close && j > start+1 {
		code := string(runes[start+1 : j])
		if iconSet != nil && iconSet.Has(code) {
			return j + 1, nil
		}
		return j + 1, &Violation{
			Position: start,
			Reason:   ReasonUnknownIconCode,
			Excerpt:  string(runes[start : j+1]),
		}
	}

	// Malformed: report the region from the opening delimiter up to where
	// the token scan stopped. When the scan stopped on an empty code with
	// an immediate closing delimiter ("::"), include the closer so the two
	// delimiters are one violation rather than two.
	end := j
	if j < len(runes) && runes[j] == v.syntax.Close && j == start+1 {
		end = j + 1
	}
	return end, &Violation{
		Position: start,
		Reason:   ReasonDisallowedCharacter,
		Excerpt:  string(runes[start:end]),
	}
}

// isCodeRune reports whether r may appear inside an icon code. Codes are
// lowercase ASCII names like "sun" or "heart_2".
func isCodeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}
