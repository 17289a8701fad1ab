package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Scaffold files written by Init. Layouts use the base+block composition the
// layout store expects; sample content exercises both unit kinds.
var scaffoldLayouts = map[string]string{
	"base.html": `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}} &middot; {{.Site.Title}}</title>
</head>
<body>
  <header><a href="/">{{.Site.Title}}</a></header>
  {{block "main" .}}{{end}}
</body>
</html>
`,
	"page.html": `{{define "main"}}
<main class="page">
  <h1>{{.Title}}</h1>
  {{.Content}}
</main>
{{end}}
`,
	"post.html": `{{define "main"}}
<article class="post">
  <h1>{{.Title}}</h1>
  {{if not .Date.IsZero}}<time>{{.Date.Format "2006-01-02"}}</time>{{end}}
  {{.Content}}
</article>
{{end}}
`,
	"list.html": `{{define "main"}}
<main class="list">
  <h1>{{.Title}}</h1>
  {{.Content}}
</main>
{{end}}
`,
}

const scaffoldAboutPage = `---
layout: page
title: About
permalink: /about/
---

Hello! This page was scaffolded by sitebuilder init. Replace it with your own
introduction.
`

const scaffoldConfig = `site:
  title: My Site
  description: A static site built with sitebuilder
  base_url: https://example.com

content:
  dir: ./content
  posts_dir: _posts

layouts:
  dir: ./layouts
  default: page

output:
  dir: ./site

build:
  link_check: true
  generate_index: true

serve:
  addr: :8080
  live_reload: true
  metrics: true
`

// Init scaffolds a site skeleton in dir: configuration file, layouts, and
// sample content. Existing files are never overwritten unless force is set.
func Init(dir, configName string, force bool) error {
	configPath := filepath.Join(dir, configName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	layoutsDir := filepath.Join(dir, "layouts")
	contentDir := filepath.Join(dir, "content")
	postsDir := filepath.Join(contentDir, "_posts")
	for _, d := range []string{layoutsDir, contentDir, postsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	if err := os.WriteFile(configPath, []byte(scaffoldConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	for name, body := range scaffoldLayouts {
		if err := writeIfAbsent(filepath.Join(layoutsDir, name), []byte(body), force); err != nil {
			return err
		}
	}

	if err := writeIfAbsent(filepath.Join(contentDir, "about.md"), []byte(scaffoldAboutPage), force); err != nil {
		return err
	}

	postName := time.Now().Format("2006-01-02") + "-hello-world.md"
	post := fmt.Sprintf(`---
layout: post
title: Hello World
date: %s
---

Welcome to your new site. This is a sample post; delete it when you publish
your first real one.
`, time.Now().Format("2006-01-02"))
	return writeIfAbsent(filepath.Join(postsDir, postName), []byte(post), force)
}

func writeIfAbsent(path string, data []byte, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
