// Package manifest records per-unit content fingerprints and the site-level
// input hash for incremental builds. A unit whose fingerprint and output path
// match the previous manifest can be carried from the prior output tree
// without re-rendering; any change to layouts or site config invalidates the
// whole manifest.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// FileName is the manifest's location relative to the output root.
const FileName = ".sitebuilder-manifest.json"

const schemaVersion = 1

// Unit is the manifest record for one content unit.
type Unit struct {
	Fingerprint string `json:"fingerprint"`
	Output      string `json:"output"`
}

// Manifest is the persisted incremental-build state for one output tree.
type Manifest struct {
	SchemaVersion int             `json:"schema_version"`
	GeneratedAt   time.Time       `json:"generated_at"`
	SiteHash      string          `json:"site_hash"`
	Units         map[string]Unit `json:"units"` // keyed by source relative path
}

// New creates an empty manifest bound to a site hash.
func New(siteHash string) *Manifest {
	return &Manifest{
		SchemaVersion: schemaVersion,
		SiteHash:      siteHash,
		Units:         make(map[string]Unit),
	}
}

// Load reads a manifest. A missing file returns (nil, nil): the absence of a
// manifest simply means nothing can be carried.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.SchemaVersion != schemaVersion {
		// Older schema: treat as absent rather than guessing at semantics.
		return nil, nil
	}
	return &m, nil
}

// Save writes the manifest atomically.
func (m *Manifest) Save(path string) error {
	m.GeneratedAt = time.Now()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename manifest: %w", err)
	}
	return nil
}

// Record stores a unit's fingerprint and output path.
func (m *Manifest) Record(rel string, u Unit) { m.Units[rel] = u }

// Lookup reports whether a unit with this fingerprint was built before and
// returns its recorded output path.
func (m *Manifest) Lookup(rel, fingerprint string) (Unit, bool) {
	if m == nil {
		return Unit{}, false
	}
	u, ok := m.Units[rel]
	if !ok || u.Fingerprint != fingerprint {
		return Unit{}, false
	}
	return u, true
}

// Fingerprint computes the canonical content fingerprint for a unit:
// key-sorted LF-normalized front matter (the fingerprint field itself
// excluded) plus the body, hashed by mdfp.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}

	serialized := ""
	if len(forHash) > 0 {
		out, err := frontmatter.Serialize(forHash, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", fmt.Errorf("serialize front matter for fingerprint: %w", err)
		}
		serialized = strings.TrimSuffix(string(out), "\n")
	}

	return mdfp.CalculateFingerprintFromParts(serialized, string(body)), nil
}

// SiteHash hashes every layout file plus the site-level config bytes. Any
// difference invalidates all carried outputs.
func SiteHash(layoutsDir string, configBytes []byte) (string, error) {
	h := sha256.New()
	h.Write(configBytes)

	entries, err := os.ReadDir(layoutsDir)
	if err != nil {
		return "", fmt.Errorf("read layouts directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(layoutsDir, name))
		if err != nil {
			return "", fmt.Errorf("read layout %s: %w", name, err)
		}
		fmt.Fprintf(h, "%s\x00%d\x00", name, len(data))
		h.Write(data)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
