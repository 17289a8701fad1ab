package site

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// CollisionError indicates two units resolved to the same output path. The
// first claimant (in sorted source order) keeps the path; the unit carrying
// this error is excluded from the build.
type CollisionError struct {
	Path   string // output path both units claimed
	First  string // source relative path of the winning unit
	Second string // source relative path of the excluded unit
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("output path %s claimed by both %s and %s", e.Path, e.First, e.Second)
}

// PlanEntry binds one unit to its resolved permalink and output path.
type PlanEntry struct {
	Unit      *content.Unit
	Permalink string
	Output    string // relative to the output root
}

// Plan is the assembler's write plan: a deterministic mapping from output
// paths to units, built before any file is written so collisions surface as
// errors instead of silent overwrites.
type Plan struct {
	entries []PlanEntry
	byPath  map[string]int // output path -> index into entries
}

// BuildPlan claims an output path for every unit, in the order given. Units
// whose path is already claimed are returned as CollisionErrors rather than
// entering the plan. Callers pass units in sorted source order so the winner
// of a collision is deterministic.
func BuildPlan(units []*content.Unit) (*Plan, []*CollisionError) {
	p := &Plan{byPath: make(map[string]int, len(units))}
	var collisions []*CollisionError

	for _, u := range units {
		permalink := Permalink(u)
		out := OutputPath(permalink)
		if i, taken := p.byPath[out]; taken {
			collisions = append(collisions, &CollisionError{
				Path:   out,
				First:  p.entries[i].Unit.File.RelativePath,
				Second: u.File.RelativePath,
			})
			continue
		}
		p.byPath[out] = len(p.entries)
		p.entries = append(p.entries, PlanEntry{Unit: u, Permalink: permalink, Output: out})
	}

	return p, collisions
}

// Entries returns the planned writes in claim order.
func (p *Plan) Entries() []PlanEntry { return p.entries }

// Len returns the number of planned pages.
func (p *Plan) Len() int { return len(p.entries) }

// HasPath reports whether an output path is claimed.
func (p *Plan) HasPath(out string) bool {
	_, ok := p.byPath[out]
	return ok
}

// Outputs returns every claimed output path, sorted.
func (p *Plan) Outputs() []string {
	outs := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		outs = append(outs, e.Output)
	}
	sort.Strings(outs)
	return outs
}
