// Package instance tracks per-label bookkeeping that outlives a single
// install or launch: when a label was last played, how long it has
// accumulated, and whether its install is known-complete. One state file
// lives alongside each label's version directory, so a game root remains
// fully self-describing without a separate database.
//
// Grounded on the teacher's internal/core/instance.go (InstanceManager),
// generalised from a per-instance directory tree keyed by a generated ID to
// a single state file keyed by the resolved label (§C7/§C6), since this
// module has no notion of multiple named copies of the same version - the
// label already is the identity.
package instance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/paths"
)

// State is the persisted bookkeeping record for one label.
type State struct {
	Label             string    `json:"label"`
	LastPlayed        time.Time `json:"lastPlayed"`
	PlayTime          int64     `json:"playTime"` // seconds
	IsFullyDownloaded bool      `json:"isFullyDownloaded"`
	CachedAt          time.Time `json:"cachedAt"`
}

func statePath(layout paths.Layout, label string) string {
	return filepath.Join(layout.VersionDir(label), "instance.json")
}

// Load reads a label's state, returning a zero-value State with IsFullyDownloaded
// false if none has been recorded yet.
func Load(layout paths.Layout, label string) (State, error) {
	data, err := os.ReadFile(statePath(layout, label))
	if os.IsNotExist(err) {
		return State{Label: label}, nil
	}
	if err != nil {
		return State{}, errs.IO(err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, errs.Serde(err)
	}
	return s, nil
}

// Save writes the state via a tmp-file-then-rename, matching the descriptor
// persist pattern in internal/resolve.
func Save(layout paths.Layout, s State) error {
	dest := statePath(layout, s.Label)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.IO(err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errs.Serde(err)
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.IO(err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return errs.IO(err)
	}
	return nil
}

// MarkInstalled records that a label's install completed, stamping CachedAt.
func MarkInstalled(layout paths.Layout, label string) error {
	s, err := Load(layout, label)
	if err != nil {
		return err
	}
	s.IsFullyDownloaded = true
	s.CachedAt = time.Now()
	return Save(layout, s)
}

// RecordSession adds elapsed playtime and bumps LastPlayed to now.
func RecordSession(layout paths.Layout, label string, elapsed time.Duration) error {
	s, err := Load(layout, label)
	if err != nil {
		return err
	}
	s.LastPlayed = time.Now()
	s.PlayTime += int64(elapsed.Seconds())
	return Save(layout, s)
}

// LatestLabel scans versions/ for labels of the form prefix + a semver-ish
// suffix (e.g. "1.20", "1.20.1", "1.20.1-rc1") and returns the one sorting
// highest under semantic version precedence, so a caller picking "the newest
// cached vanilla install" doesn't rely on directory listing order or a plain
// string comparison ("1.9" would otherwise sort above "1.10"). Labels that
// don't parse as a semantic version are skipped rather than erroring, since
// loader labels (e.g. "fabric-1.20.1-0.15.0") don't fit that shape at all.
func LatestLabel(layout paths.Layout, prefix string) (string, bool) {
	entries, err := os.ReadDir(layout.VersionsDir())
	if err != nil {
		return "", false
	}

	var best string
	var bestVer *semver.Version
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		raw := strings.TrimPrefix(e.Name(), prefix)
		raw = strings.TrimPrefix(raw, "-")
		if raw == "" {
			raw = e.Name()
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			bestVer = v
			best = e.Name()
		}
	}

	return best, bestVer != nil
}

// SortedLabels returns every recorded label's directory name ordered newest
// to oldest by the state's LastPlayed, falling back to a lexicographic sort
// for labels never played.
func SortedLabels(layout paths.Layout) []string {
	entries, err := os.ReadDir(layout.VersionsDir())
	if err != nil {
		return nil
	}

	type row struct {
		label string
		state State
	}
	var rows []row
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := Load(layout, e.Name())
		if err != nil {
			continue
		}
		rows = append(rows, row{label: e.Name(), state: s})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].state.LastPlayed.Equal(rows[j].state.LastPlayed) {
			return rows[i].label < rows[j].label
		}
		return rows[i].state.LastPlayed.After(rows[j].state.LastPlayed)
	})

	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.label
	}
	return labels
}
