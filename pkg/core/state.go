// pkg/core/state.go
package core

import "time"

// Session groups the character states recorded during one observation run.
type Session struct {
	ID        uint
	Name      string
	Tag       string
	StartTime time.Time
	// SampleInterval is how often the recorder sampled, in milliseconds.
	SampleInterval uint
}

// CharacterState is a point-in-time capture of everything observable
// about a character. Values follow the accessors' sentinels: -1 for
// "unknown", 255 / 100 for full health when no combat data exists.
type CharacterState struct {
	Kind         string    `json:"kind"`
	Index        int       `json:"index"`
	Time         time.Time `json:"time"`
	LoopCycle    int       `json:"loopCycle"`
	Name         string    `json:"name"`
	Level        int       `json:"level"`
	Location     Tile      `json:"location"`
	Orientation  int       `json:"orientation"`
	Animation    int       `json:"animation"`
	HPRatio      int       `json:"hpRatio"`
	HPPercent    int       `json:"hpPercent"`
	InCombat     bool      `json:"inCombat"`
	Moving       bool      `json:"moving"`
	Idle         bool      `json:"idle"`
	OnScreen     bool      `json:"onScreen"`
	Interacting  int       `json:"interacting"`
	Message      string    `json:"message,omitempty"`
	ModelCapture bool      `json:"modelCapture"`
	Bounds       []Polygon `json:"bounds,omitempty"`
}

// Interaction is a pointer or menu action performed on a character.
type Interaction struct {
	Kind      string    `json:"kind"`
	Index     int       `json:"index"`
	Time      time.Time `json:"time"`
	LoopCycle int       `json:"loopCycle"`
	// Action is "hover", "click" or "interact".
	Action string `json:"action"`
	// Verb and Option name the menu entry for "interact".
	Verb    string `json:"verb,omitempty"`
	Option  string `json:"option,omitempty"`
	Left    bool   `json:"left,omitempty"`
	Success bool   `json:"success"`
}

// Interaction actions.
const (
	ActionHover    = "hover"
	ActionClick    = "click"
	ActionInteract = "interact"
)

// UploadMetadata describes an exported session file sent to a recording
// server.
type UploadMetadata struct {
	SessionName string
	Tag         string
	// Duration is the recorded span in seconds.
	Duration float64
}
