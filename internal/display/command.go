// Package display defines the render pipeline types shared by the gateway
// and the renderer: the commands published over NATS, the simulated badge
// state, its Redis-backed store, and a small in-memory history of recent
// messages.
package display

import (
	"encoding/json"
	"fmt"
)

// Command types published on the render subjects.
const (
	CommandRender = "render"
	CommandClear  = "clear"
)

// Known values for Command.Source.
const (
	SourceAPI     = "api"
	SourceSummary = "summary"
	SourceWeather = "weather"
)

// Command is a validated instruction for the rendering backend. The gateway
// only publishes a render command after the message passed validation, so
// the renderer treats Text as renderable and forwards it unchanged.
type Command struct {
	ID     string `json:"id"`   // request UUID, doubles as the problem instance
	Type   string `json:"type"` // "render" or "clear"
	Text   string `json:"text,omitempty"`
	Source string `json:"source,omitempty"`
	Units  int    `json:"units,omitempty"` // display units; an icon token counts as one
	Ts     int64  `json:"ts"`              // unix milliseconds at gateway accept
}

// Encode serializes the command for publishing.
func (c Command) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("display: marshal command: %w", err)
	}
	return data, nil
}

// DecodeCommand parses a command received from NATS.
func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("display: unmarshal command: %w", err)
	}
	if c.Type == "" {
		return Command{}, fmt.Errorf("display: command missing type")
	}
	return c, nil
}
