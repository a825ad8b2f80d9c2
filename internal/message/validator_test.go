package message

import (
	"reflect"
	"testing"
	"time"

	"github.com/glowsign/display-app/internal/icons"
	"github.com/glowsign/display-app/internal/policy"
)

func newTestValidator() *Validator {
	return NewValidator(policy.NewCharacterClass(), DefaultSyntax())
}

func snapshotOf(codes ...string) *icons.Snapshot {
	return icons.NewSnapshot(codes, time.Now())
}

func TestValidate_Accepted(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf("sun", "heart", "star")

	messages := []string{
		"Hello World",
		"Hello :sun: World",
		":star: :heart:",
		"Temperature 21C!",
		"a",
		"punctuation, none... wait",
	}

	for _, msg := range messages {
		result := v.Validate(msg, snap)
		if !result.Accepted() {
			t.Errorf("Validate(%q) rejected, violations = %+v", msg, result.Violations)
		}
	}
}

func TestValidate_UnknownIconCode(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf("sun")

	result := v.Validate("Hello :moon: World", snap)
	want := []Violation{
		{Position: 6, Reason: ReasonUnknownIconCode, Excerpt: ":moon:"},
	}
	if !reflect.DeepEqual(result.Violations, want) {
		t.Errorf("violations = %+v, want %+v", result.Violations, want)
	}
}

func TestValidate_DisallowedCharacter(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf("sun")

	result := v.Validate("Café", snap)
	want := []Violation{
		{Position: 3, Reason: ReasonDisallowedCharacter, Excerpt: "é"},
	}
	if !reflect.DeepEqual(result.Violations, want) {
		t.Errorf("violations = %+v, want %+v", result.Violations, want)
	}
}

func TestValidate_EmptyMessage(t *testing.T) {
	snap := snapshotOf("sun")

	t.Run("rejected by default", func(t *testing.T) {
		v := newTestValidator()
		result := v.Validate("", snap)
		want := []Violation{
			{Position: 0, Reason: ReasonMessageRequired, Excerpt: ""},
		}
		if !reflect.DeepEqual(result.Violations, want) {
			t.Errorf("violations = %+v, want %+v", result.Violations, want)
		}
	})

	t.Run("accepted when policy allows empty", func(t *testing.T) {
		v := NewValidator(policy.NewCharacterClass(policy.WithAllowEmpty()), DefaultSyntax())
		if result := v.Validate("", snap); !result.Accepted() {
			t.Errorf("empty message rejected with AllowEmpty, violations = %+v", result.Violations)
		}
	})
}

func TestValidate_MalformedTokens(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf("sun")

	tests := []struct {
		name string
		msg  string
		want []Violation
	}{
		{
			"unterminated token at end",
			"meet at 12:30",
			[]Violation{{Position: 10, Reason: ReasonDisallowedCharacter, Excerpt: ":30"}},
		},
		{
			"unterminated then literal resumes",
			":30 ok",
			[]Violation{{Position: 0, Reason: ReasonDisallowedCharacter, Excerpt: ":30"}},
		},
		{
			"empty code",
			"a::b",
			[]Violation{{Position: 1, Reason: ReasonDisallowedCharacter, Excerpt: "::"}},
		},
		{
			"lone trailing delimiter",
			"done:",
			[]Violation{{Position: 4, Reason: ReasonDisallowedCharacter, Excerpt: ":"}},
		},
		{
			"token interrupted by space",
			":su n:",
			[]Violation{
				{Position: 0, Reason: ReasonDisallowedCharacter, Excerpt: ":su"},
				// " n:" resumes as literals; the trailing ":" is another
				// unterminated marker.
				{Position: 5, Reason: ReasonDisallowedCharacter, Excerpt: ":"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.msg, snap)
			if !reflect.DeepEqual(result.Violations, tt.want) {
				t.Errorf("Validate(%q) violations = %+v, want %+v", tt.msg, result.Violations, tt.want)
			}
		})
	}
}

func TestValidate_AllViolationsReported(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf("sun")

	result := v.Validate("Héllo :moon: wörld :sun: ☺", snap)
	want := []Violation{
		{Position: 1, Reason: ReasonDisallowedCharacter, Excerpt: "é"},
		{Position: 6, Reason: ReasonUnknownIconCode, Excerpt: ":moon:"},
		{Position: 14, Reason: ReasonDisallowedCharacter, Excerpt: "ö"},
		{Position: 25, Reason: ReasonDisallowedCharacter, Excerpt: "☺"},
	}
	if !reflect.DeepEqual(result.Violations, want) {
		t.Errorf("violations = %+v, want %+v", result.Violations, want)
	}
}

func TestValidate_OrderingAndIdempotence(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf("sun")
	msg := "über :nope: Ҩ :sun: ǂ"

	first := v.Validate(msg, snap)
	second := v.Validate(msg, snap)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated validation differs: %+v vs %+v", first, second)
	}

	for i := 1; i < len(first.Violations); i++ {
		if first.Violations[i].Position <= first.Violations[i-1].Position {
			t.Errorf("violations not in strictly increasing position order: %+v", first.Violations)
		}
	}
}

func TestValidate_IconCodeCaseInsensitive(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf(":Sun:")

	if result := v.Validate("Hi :sun:", snap); !result.Accepted() {
		t.Errorf("mixed-case registry code not matched, violations = %+v", result.Violations)
	}
	if result := v.Validate("Hi :SUN:", snap); !result.Accepted() {
		t.Errorf("mixed-case message token not matched, violations = %+v", result.Violations)
	}
}

func TestValidate_Units(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf("sun")

	tests := []struct {
		msg   string
		units int
	}{
		{"Hello", 5},
		{":sun:", 1},
		{"Hello :sun: World", 13}, // 17 runes, token collapses to one glyph
		{"ab:sun::sun:", 4},
		{"", 0},
	}

	for _, tt := range tests {
		if got := v.Validate(tt.msg, snap).Units; got != tt.units {
			t.Errorf("Validate(%q).Units = %d, want %d", tt.msg, got, tt.units)
		}
	}
}

func TestValidate_IconTokenAtBoundaries(t *testing.T) {
	v := newTestValidator()
	snap := snapshotOf("sun", "star")

	tests := []struct {
		msg      string
		accepted bool
	}{
		{":sun:", true},
		{":sun::star:", true},
		{":sun: trailing text", true},
		{"leading text :star:", true},
	}

	for _, tt := range tests {
		result := v.Validate(tt.msg, snap)
		if result.Accepted() != tt.accepted {
			t.Errorf("Validate(%q).Accepted() = %v, want %v (violations %+v)",
				tt.msg, result.Accepted(), tt.accepted, result.Violations)
		}
	}
}
