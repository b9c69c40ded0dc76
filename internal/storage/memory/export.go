package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	Name           string             `json:"name"`
	Tag            string             `json:"tag"`
	StartTime      time.Time          `json:"startTime"`
	EndTime        time.Time          `json:"endTime"`
	SampleInterval uint               `json:"sampleInterval"`
	EndLoopCycle   int                `json:"endLoopCycle"`
	Characters     []CharacterJSON    `json:"characters"`
	Interactions   []core.Interaction `json:"interactions"`
}

// CharacterJSON is one slot and its samples. Each sample is
//
//	[loopCycle, [x, y, plane], orientation, animation, hpPercent, inCombat, moving, idle, interacting]
//
// with booleans written as 0/1.
type CharacterJSON struct {
	Kind    string  `json:"kind"`
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	Samples [][]any `json:"samples"`
}

var fileNameReplacer = strings.NewReplacer(" ", "_", ":", "_", "/", "_")

// exportJSON writes the session data to a (gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport(time.Now())

	name := fileNameReplacer.Replace(b.session.Name)
	if name == "" {
		name = "session"
	}
	timestamp := b.session.StartTime.Format("20060102_150405")

	filename := fmt.Sprintf("%s_%s.json", name, timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport(end time.Time) SessionExport {
	export := SessionExport{
		Name:           b.session.Name,
		Tag:            b.session.Tag,
		StartTime:      b.session.StartTime,
		EndTime:        end,
		SampleInterval: b.session.SampleInterval,
		Characters:     make([]CharacterJSON, 0, len(b.characters)),
		Interactions:   append([]core.Interaction{}, b.interactions...),
	}

	for _, record := range b.characters {
		c := CharacterJSON{
			Kind:    record.Kind,
			Index:   record.Index,
			Name:    record.Name,
			Samples: make([][]any, 0, len(record.States)),
		}
		for _, s := range record.States {
			c.Samples = append(c.Samples, []any{
				s.LoopCycle,
				[]int{s.Location.X, s.Location.Y, s.Location.Plane},
				s.Orientation,
				s.Animation,
				s.HPPercent,
				boolToInt(s.InCombat),
				boolToInt(s.Moving),
				boolToInt(s.Idle),
				s.Interacting,
			})
			if s.LoopCycle > export.EndLoopCycle {
				export.EndLoopCycle = s.LoopCycle
			}
		}
		export.Characters = append(export.Characters, c)
	}

	sort.Slice(export.Characters, func(i, j int) bool {
		a, c := export.Characters[i], export.Characters[j]
		if a.Kind != c.Kind {
			return a.Kind < c.Kind
		}
		return a.Index < c.Index
	})
	return export
}

func writeJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		_ = gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
