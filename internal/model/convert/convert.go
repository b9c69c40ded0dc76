// Package convert maps between the pkg/core value types and the gorm
// models in internal/model.
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/jamiegrech/RSBot-API/internal/model"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// tileToPoint stores an absolute tile as a 2D point. A point that fails
// validation is stored empty.
func tileToPoint(t core.Tile) geom.Point {
	pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: float64(t.X), Y: float64(t.Y)}, Type: geom.DimXY})
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY)
	}
	return pt
}

// pointToTile reverses tileToPoint. An empty point maps to the zero tile.
func pointToTile(p geom.Point, plane int) core.Tile {
	xy, ok := p.XY()
	if !ok {
		return core.Tile{Plane: plane}
	}
	return core.Tile{X: int(xy.X), Y: int(xy.Y), Plane: plane}
}

// CoreToSession converts a core session to its gorm row.
func CoreToSession(s core.Session) model.Session {
	m := model.Session{
		Name:             s.Name,
		Tag:              s.Tag,
		StartTime:        s.StartTime,
		SampleIntervalMs: s.SampleInterval,
	}
	m.ID = s.ID
	return m
}

// SessionToCore converts a gorm session row back to core.
func SessionToCore(m model.Session) core.Session {
	return core.Session{
		ID:             m.ID,
		Name:           m.Name,
		Tag:            m.Tag,
		StartTime:      m.StartTime,
		SampleInterval: m.SampleIntervalMs,
	}
}

// EndTime returns the value stored when a session ends.
func EndTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// CoreToCharacterState converts a snapshot to its gorm row. The session id
// is stamped by the writer.
func CoreToCharacterState(s core.CharacterState) (model.CharacterState, error) {
	var bounds datatypes.JSON
	if len(s.Bounds) > 0 {
		raw, err := json.Marshal(s.Bounds)
		if err != nil {
			return model.CharacterState{}, fmt.Errorf("marshal bounds: %w", err)
		}
		bounds = datatypes.JSON(raw)
	}

	return model.CharacterState{
		Time:         s.Time,
		LoopCycle:    s.LoopCycle,
		Kind:         s.Kind,
		SlotIndex:    s.Index,
		Name:         s.Name,
		Level:        s.Level,
		Position:     tileToPoint(s.Location),
		Plane:        s.Location.Plane,
		Orientation:  s.Orientation,
		Animation:    s.Animation,
		HPRatio:      s.HPRatio,
		HPPercent:    s.HPPercent,
		InCombat:     s.InCombat,
		Moving:       s.Moving,
		Idle:         s.Idle,
		Interacting:  s.Interacting,
		Message:      s.Message,
		OnScreen:     s.OnScreen,
		ModelCapture: s.ModelCapture,
		Bounds:       bounds,
	}, nil
}

// CharacterStateToCore converts a gorm row back to a snapshot.
func CharacterStateToCore(m model.CharacterState) (core.CharacterState, error) {
	s := core.CharacterState{
		Kind:         m.Kind,
		Index:        m.SlotIndex,
		Time:         m.Time,
		LoopCycle:    m.LoopCycle,
		Name:         m.Name,
		Level:        m.Level,
		Location:     pointToTile(m.Position, m.Plane),
		Orientation:  m.Orientation,
		Animation:    m.Animation,
		HPRatio:      m.HPRatio,
		HPPercent:    m.HPPercent,
		InCombat:     m.InCombat,
		Moving:       m.Moving,
		Idle:         m.Idle,
		OnScreen:     m.OnScreen,
		Interacting:  m.Interacting,
		Message:      m.Message,
		ModelCapture: m.ModelCapture,
	}
	if len(m.Bounds) > 0 {
		if err := json.Unmarshal(m.Bounds, &s.Bounds); err != nil {
			return core.CharacterState{}, fmt.Errorf("unmarshal bounds: %w", err)
		}
	}
	return s, nil
}

// CoreToInteraction converts an interaction record to its gorm row.
func CoreToInteraction(e core.Interaction) model.Interaction {
	return model.Interaction{
		Time:      e.Time,
		LoopCycle: e.LoopCycle,
		Kind:      e.Kind,
		SlotIndex: e.Index,
		Action:    e.Action,
		Verb:      e.Verb,
		Option:    e.Option,
		Left:      e.Left,
		Success:   e.Success,
	}
}

// InteractionToCore converts a gorm interaction row back to a record.
func InteractionToCore(m model.Interaction) core.Interaction {
	return core.Interaction{
		Kind:      m.Kind,
		Index:     m.SlotIndex,
		Time:      m.Time,
		LoopCycle: m.LoopCycle,
		Action:    m.Action,
		Verb:      m.Verb,
		Option:    m.Option,
		Left:      m.Left,
		Success:   m.Success,
	}
}
