package site

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

func TestBuildPlanCollisionExcludesSecondUnit(t *testing.T) {
	units := []*content.Unit{
		pageUnit("about.md", "/about/"),
		pageUnit("who-we-are.md", "/about/"),
	}

	plan, collisions := BuildPlan(units)

	require.Len(t, collisions, 1)
	c := collisions[0]
	assert.Equal(t, filepath.Join("about", "index.html"), c.Path)
	assert.Equal(t, "about.md", c.First)
	assert.Equal(t, "who-we-are.md", c.Second)

	// First claimant renders.
	require.Equal(t, 1, plan.Len())
	assert.Equal(t, "about.md", plan.Entries()[0].Unit.File.RelativePath)
}

func TestBuildPlanNoCollision(t *testing.T) {
	units := []*content.Unit{
		pageUnit("about.md", ""),
		pageUnit("contact.md", ""),
	}
	plan, collisions := BuildPlan(units)
	assert.Empty(t, collisions)
	assert.Equal(t, 2, plan.Len())
	assert.True(t, plan.HasPath(filepath.Join("about", "index.html")))
	assert.True(t, plan.HasPath(filepath.Join("contact", "index.html")))
}

func TestPlanOutputsSorted(t *testing.T) {
	units := []*content.Unit{
		pageUnit("zulu.md", ""),
		pageUnit("alpha.md", ""),
	}
	plan, _ := BuildPlan(units)
	outs := plan.Outputs()
	require.Len(t, outs, 2)
	assert.Equal(t, filepath.Join("alpha", "index.html"), outs[0])
}
