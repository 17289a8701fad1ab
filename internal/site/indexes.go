package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// listLayoutName is preferred for the generated home page; the configured
// default layout is the fallback.
const listLayoutName = "list"

var postListTemplate = template.Must(template.New("postlist").Parse(`<ul class="post-list">
{{- range . }}
  <li>
    <a href="{{.Permalink}}">{{.Title}}</a>
    {{- if not .Date.IsZero }}
    <time datetime="{{.Date.Format "2006-01-02"}}">{{.Date.Format "January 2, 2006"}}</time>
    {{- end }}
  </li>
{{- end }}
</ul>
`))

type postListItem struct {
	Title     string
	Permalink string
	Date      time.Time
}

// stageGenerateIndex synthesizes a home page listing posts when the content
// tree did not claim the root index itself.
func stageGenerateIndex(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	if !g.cfg.Build.GenerateIndex {
		return nil
	}
	if bs.Plan.HasPath("index.html") {
		return nil
	}

	posts := make([]PlanEntry, 0)
	for _, e := range bs.Plan.Entries() {
		if e.Unit.File.Kind == content.KindPost {
			posts = append(posts, e)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Unit.Meta.Date.After(posts[j].Unit.Meta.Date)
	})

	items := make([]postListItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, postListItem{
			Title:     p.Unit.Meta.Title,
			Permalink: p.Permalink,
			Date:      p.Unit.Meta.Date,
		})
	}

	var listing bytes.Buffer
	if err := postListTemplate.Execute(&listing, items); err != nil {
		return newWarnStageError(StageGenerateIndex, fmt.Errorf("render post list: %w", err))
	}

	layoutName := listLayoutName
	if !bs.Layouts.Has(layoutName) {
		layoutName = "" // resolve to the configured default
	}

	var page bytes.Buffer
	err := bs.Layouts.Execute(&page, layoutName, layouts.PageData{
		Title:     g.cfg.Site.Title,
		Permalink: "/",
		Content:   template.HTML(listing.Bytes()),
	})
	if err != nil {
		return newWarnStageError(StageGenerateIndex, fmt.Errorf("compose index page: %w", err))
	}

	if err := g.writeStaged("index.html", page.Bytes()); err != nil {
		return newWarnStageError(StageGenerateIndex, err)
	}

	bs.Report.Rendered++
	slog.Debug("Generated index page", logfields.Count(len(posts)))
	return nil
}
