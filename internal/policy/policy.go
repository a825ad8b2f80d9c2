// Package policy defines the static character class for display messages.
// It decides which literal characters are always renderable, independent of
// the dynamic icon registry. The rule set is fixed at construction time and
// performs no I/O, so it can be shared freely across concurrent validations.
package policy

// CharacterClass reports whether a literal rune is permitted in a display
// message. Implementations must be pure and safe for concurrent use.
type CharacterClass struct {
	allow      map[rune]bool // explicit allow-set; nil means use the ASCII range
	deny       map[rune]bool
	allowEmpty bool
}

// Option configures a CharacterClass.
type Option func(*CharacterClass)

// WithDenylist removes the given runes from the permitted set.
func WithDenylist(runes ...rune) Option {
	return func(c *CharacterClass) {
		for _, r := range runes {
			c.deny[r] = true
		}
	}
}

// WithAllowSet replaces the default printable-ASCII range with an explicit
// set of permitted runes.
func WithAllowSet(runes ...rune) Option {
	return func(c *CharacterClass) {
		c.allow = make(map[rune]bool, len(runes))
		for _, r := range runes {
			c.allow[r] = true
		}
	}
}

// WithAllowEmpty permits the empty message. By default an empty message is
// rejected as "message required".
func WithAllowEmpty() Option {
	return func(c *CharacterClass) {
		c.allowEmpty = true
	}
}

// NewCharacterClass builds a character class. Without options it permits
// printable ASCII (0x20 through 0x7E) and rejects the empty message.
func NewCharacterClass(opts ...Option) *CharacterClass {
	c := &CharacterClass{
		deny: make(map[rune]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allowed reports whether r is a permitted literal character.
func (c *CharacterClass) Allowed(r rune) bool {
	if c.deny[r] {
		return false
	}
	if c.allow != nil {
		return c.allow[r]
	}
	return r >= 0x20 && r <= 0x7E
}

// AllowEmpty reports whether an empty message is acceptable output.
func (c *CharacterClass) AllowEmpty() bool {
	return c.allowEmpty
}
