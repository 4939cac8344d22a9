// Package level implements the reveal-driven level progression.
package level

import (
	"fmt"

	"github.com/LilFatFrank/scratch-off/pkg/prize"
)

// Policy decides which reveals count toward the next level.
type Policy int

const (
	// CountAllReveals counts every scratch, win or lose.
	CountAllReveals Policy = iota
	// CountWinsOnly counts winning scratches, friend wins included.
	// Losses leave the counter untouched.
	CountWinsOnly
)

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "all":
		return CountAllReveals, nil
	case "wins_only":
		return CountWinsOnly, nil
	default:
		return 0, fmt.Errorf("level: unknown policy %q", s)
	}
}

// requirements maps a level to the number of counted reveals needed to
// reach the next one. Levels past the table keep the final requirement.
var requirements = map[int]int{
	1: 5,
	2: 10,
	3: 20,
	4: 50,
	5: 100,
}

const maxRequirement = 100

// Requirement returns the counted-reveal budget for the given level.
func Requirement(level int) int {
	if req, ok := requirements[level]; ok {
		return req
	}
	return maxRequirement
}

// Result is the progression state after applying a reveal.
type Result struct {
	Level     int
	Remaining int
	// BonusCards is the number of free cards earned by the level-up,
	// equal to the level just reached minus one. Zero when no level-up
	// happened.
	BonusCards int
	LeveledUp  bool
}

// Advance applies one reveal to the progression counters. remaining is
// the number of counted reveals still needed at the current level; when
// it reaches zero the user moves up a level and the counter resets to the
// new level's requirement.
func Advance(level, remaining int, outcome prize.Outcome, policy Policy) Result {
	if level < 1 {
		level = 1
	}
	if remaining < 1 {
		remaining = Requirement(level)
	}

	counted := policy == CountAllReveals || !outcome.IsLose()
	if !counted {
		return Result{Level: level, Remaining: remaining}
	}

	remaining--
	if remaining > 0 {
		return Result{Level: level, Remaining: remaining}
	}

	newLevel := level + 1
	return Result{
		Level:      newLevel,
		Remaining:  Requirement(newLevel),
		BonusCards: newLevel - 1,
		LeveledUp:  true,
	}
}
