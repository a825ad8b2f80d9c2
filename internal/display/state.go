package display

import (
	"time"
	"unicode/utf8"
)

// Simulated LED matrix dimensions (a typical 11x44 name badge).
const (
	MatrixRows = 11
	MatrixCols = 44
)

// GlyphCols is the column width of one display unit (a character or icon).
const GlyphCols = 8

// Scroll modes.
const (
	ModeScroll = "scroll" // marquee, right to left
	ModeStatic = "static" // centered, no movement
)

// State is the simulated badge state maintained by the renderer. It is the
// payload broadcast to state-stream subscribers and mirrored to Redis.
type State struct {
	Text       string `json:"text" redis:"text"`
	TextWidth  int    `json:"text_width" redis:"text_width"` // columns
	Mode       string `json:"mode" redis:"mode"`
	Speed      int    `json:"speed" redis:"speed"`
	Brightness int    `json:"brightness" redis:"brightness"`
	ScrollPos  int    `json:"scroll_pos" redis:"scroll_pos"`
	Running    bool   `json:"running" redis:"running"`
	UpdatedAt  int64  `json:"updated_at" redis:"updated_at"` // unix milliseconds
}

// Apply resets the state for a newly accepted message. units is the display
// unit count from the gateway; when absent the rune count is used.
func (s *State) Apply(cmd Command) {
	units := cmd.Units
	if units <= 0 {
		units = utf8.RuneCountInString(cmd.Text)
	}

	s.Text = cmd.Text
	s.TextWidth = units * GlyphCols
	s.Mode = ModeScroll
	s.Speed = 4
	s.Brightness = 100
	s.ScrollPos = 0
	s.Running = s.Text != ""
	s.UpdatedAt = time.Now().UnixMilli()
}

// Clear blanks the display.
func (s *State) Clear() {
	*s = State{UpdatedAt: time.Now().UnixMilli()}
}

// Advance moves the marquee one column and reports whether the state
// changed. The scroll position wraps after the text has fully crossed the
// matrix, matching the badge's continuous marquee behavior.
func (s *State) Advance() bool {
	if !s.Running || s.Text == "" || s.Mode != ModeScroll {
		return false
	}
	s.ScrollPos++
	if s.ScrollPos > s.TextWidth+MatrixCols {
		s.ScrollPos = 0
	}
	return true
}
