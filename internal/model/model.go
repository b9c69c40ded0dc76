package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&CharacterState{},
	&Interaction{},
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Session is one observation run
type Session struct {
	gorm.Model
	Name             string       `json:"name" gorm:"size:200"`
	Tag              string       `json:"tag" gorm:"size:64"`
	StartTime        time.Time    `json:"startTime" gorm:"index:idx_session_start"`
	EndTime          sql.NullTime `json:"endTime"`
	SampleIntervalMs uint         `json:"sampleIntervalMs"`
}

func (*Session) TableName() string {
	return "sessions"
}

// CharacterState is a sampled snapshot of one character slot.
//
// Command: :CHARACTER:STATE:
// Args: [kind, index]
type CharacterState struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_characterstate_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	LoopCycle int       `json:"loopCycle" gorm:"index:idx_characterstate_loop_cycle"`

	Kind      string `json:"kind" gorm:"size:8;index:idx_characterstate_slot"` // npc or player
	SlotIndex int    `json:"slotIndex" gorm:"index:idx_characterstate_slot"`
	Name      string `json:"name" gorm:"size:64"`
	Level     int    `json:"level"`

	Position    geom.Point `json:"position"` // absolute tile X/Y
	Plane       int        `json:"plane"`
	Orientation int        `json:"orientation"` // compass degrees
	Animation   int        `json:"animation"`

	HPRatio   int  `json:"hpRatio"`
	HPPercent int  `json:"hpPercent"`
	InCombat  bool `json:"inCombat"`
	Moving    bool `json:"moving"`
	Idle      bool `json:"idle"`

	Interacting  int            `json:"interacting"`
	Message      string         `json:"message" gorm:"size:255"`
	OnScreen     bool           `json:"onScreen"`
	ModelCapture bool           `json:"modelCapture"`
	Bounds       datatypes.JSON `json:"bounds"` // screen polygons at sample time
}

func (*CharacterState) TableName() string {
	return "character_states"
}

// Interaction records a hover, click or menu action sent to a character.
type Interaction struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_interaction_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	LoopCycle int       `json:"loopCycle"`

	Kind      string `json:"kind" gorm:"size:8"`
	SlotIndex int    `json:"slotIndex"`
	Action    string `json:"action" gorm:"size:16"`
	Verb      string `json:"verb" gorm:"size:64"`
	Option    string `json:"option" gorm:"size:64"`
	Left      bool   `json:"left"`
	Success   bool   `json:"success"`
}

func (*Interaction) TableName() string {
	return "interactions"
}
