package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/desert-planet/pkg/state"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <save.json>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := 0
	for _, filename := range os.Args[1:] {
		validator := &SaveValidator{}
		if err := validator.validateFile(filename, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
	fmt.Println("All save files are valid!")
}

// SaveValidator checks a save file with the strict decoder and collects
// warnings for things the decoder deliberately accepts.
type SaveValidator struct {
	warnings []string
}

func (v *SaveValidator) validateFile(filename string, out io.Writer) error {
	fmt.Fprintf(out, "Validating %s...\n", filename)

	if filepath.Ext(filename) != ".json" {
		return fmt.Errorf("save file must have .json extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	gs, err := state.FromJSONStrict(data)
	if err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	v.warnings = nil
	v.checkWorld(&gs.World)
	for _, w := range v.warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}

	fmt.Fprintf(out, "  save %q: %dx%d world, %d NPCs, %d work tasks, %ds played\n",
		gs.Metadata.SaveID, gs.World.Width, gs.World.Height,
		len(gs.World.NPCs), len(gs.World.WorkTasks), gs.Metadata.PlayTime)
	fmt.Fprintf(out, "  tiles: %s\n", tileSummary(gs.World.TileCounts()))
	return nil
}

// checkWorld reports grid and placement problems. None of these stop the
// save from loading.
func (v *SaveValidator) checkWorld(w *state.World) {
	if len(w.Tiles) != w.Height {
		v.addWarning(fmt.Sprintf("tile grid has %d rows, world height is %d", len(w.Tiles), w.Height))
	}
	for i, row := range w.Tiles {
		if len(row) != w.Width {
			v.addWarning(fmt.Sprintf("tile row %d has %d columns, world width is %d", i, len(row), w.Width))
		}
	}

	seen := make(map[string]bool)
	for _, npc := range w.NPCs {
		if seen[npc.ID] {
			v.addWarning(fmt.Sprintf("duplicate NPC id %q", npc.ID))
		}
		seen[npc.ID] = true
		if !inBounds(w, npc.X, npc.Y) {
			v.addWarning(fmt.Sprintf("NPC %q at (%d,%d) is outside the world", npc.ID, npc.X, npc.Y))
		}
	}

	seen = make(map[string]bool)
	for _, task := range w.WorkTasks {
		if seen[task.ID] {
			v.addWarning(fmt.Sprintf("duplicate work task id %q", task.ID))
		}
		seen[task.ID] = true
		if !inBounds(w, task.X, task.Y) {
			v.addWarning(fmt.Sprintf("work task %q at (%d,%d) is outside the world", task.ID, task.X, task.Y))
		}
	}
}

func (v *SaveValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, msg)
}

func inBounds(w *state.World, x, y int) bool {
	return x >= 0 && y >= 0 && x < w.Width && y < w.Height
}

// tileSummary renders counts as "Desert 12, Ground 4", most common first.
func tileSummary(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	titleCaser := cases.Title(language.English)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		name := titleCaser.String(strings.ReplaceAll(id, "_", " "))
		parts = append(parts, fmt.Sprintf("%s %d", name, counts[id]))
	}
	return strings.Join(parts, ", ")
}
