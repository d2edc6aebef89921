// Package install implements the install planner + executor (C8): enumerate
// the download set from a merged descriptor, repair by hash, extract
// natives, and materialise legacy asset layouts.
//
// Grounded on the teacher's internal/launch/launcher.go, which originally
// folded planning and downloading into the launcher itself; that is split
// out here into its own package per §4.6, with the actual transfer delegated
// to internal/fetch rather than the teacher's internal/download/manager.go
// (superseded, see DESIGN.md).
package install

import (
	"fmt"
	"os"

	"github.com/quasarlabs/ignite/internal/archiveutil"
	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/paths"
	"github.com/quasarlabs/ignite/internal/rules"
)

// Kind tags what a planned entry is, used only for logging/diagnostics — the
// download and repair logic treats every entry identically.
type Kind string

const (
	KindClientJar Kind = "client_jar"
	KindLibrary   Kind = "library"
	KindNative    Kind = "native"
	KindAsset     Kind = "asset"
)

// Entry is one planned file: its expected hash (may be empty), source URL
// and destination path.
type Entry struct {
	Kind Kind
	SHA1 string
	URL  string
	Dest string
}

// NativeJob is a downloaded native-classifier jar awaiting extraction into
// the per-version natives directory.
type NativeJob struct {
	ArchivePath string
}

// NeedsDownload implements the repair predicate from §4.6: missing
// destination always needs a fetch; an existing destination is trusted as-is
// when no hash is known, and re-fetched only on a hash mismatch.
func NeedsDownload(e Entry) bool {
	if _, err := os.Stat(e.Dest); err != nil {
		return true
	}
	if e.SHA1 == "" {
		return false
	}
	return !archiveutil.MatchesSHA1(e.Dest, e.SHA1)
}

// nativesDirEmpty reports whether dir has zero entries, counting a
// not-yet-created directory as empty (§4.6 step 2,
// original_source/src/minecraft/install.rs's
// "check_natives = fs::read_dir(natives_path)?.count() == 0" gate).
func nativesDirEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}
	return len(entries) == 0
}

// PlanLibraries walks a descriptor's library list, splitting each into either
// a plain classpath artifact or a native-classifier download, according to
// whether it carries a natives block matching the current OS (§4.6 step 2).
// Native classifiers are only planned when nativesDir is currently empty;
// once a label's natives have been extracted once, re-running install must
// not re-download and re-extract them.
func PlanLibraries(libs []descriptor.Library, layout paths.Layout, env rules.Env, nativesDir string) ([]Entry, []NativeJob) {
	var entries []Entry
	var natives []NativeJob
	checkNatives := nativesDirEmpty(nativesDir)

	for _, lib := range libs {
		if !lib.AllowedOn(env) {
			continue
		}

		if lib.HasNatives() && checkNatives {
			classifierKey, ok := lib.Natives[env.OSName]
			if ok && lib.Downloads != nil {
				if art, ok := lib.Downloads.Classifiers[classifierKey]; ok && art != nil {
					dest := layout.Library(art.Path)
					entries = append(entries, Entry{Kind: KindNative, SHA1: art.SHA1, URL: art.URL, Dest: dest})
					natives = append(natives, NativeJob{ArchivePath: dest})
					continue
				}
			}
			continue
		}
		if lib.HasNatives() {
			continue
		}

		if lib.Downloads != nil && lib.Downloads.Artifact != nil {
			art := lib.Downloads.Artifact
			entries = append(entries, Entry{Kind: KindLibrary, SHA1: art.SHA1, URL: art.URL, Dest: layout.Library(art.Path)})
		}
	}

	return entries, natives
}

// PlanAssets turns an asset index's object map into download entries, each
// addressed by its content hash (§4.6 step 1).
func PlanAssets(index descriptor.AssetIndex, layout paths.Layout) []Entry {
	entries := make([]Entry, 0, len(index.Objects))
	for _, obj := range index.Objects {
		prefix := obj.Hash
		if len(prefix) >= 2 {
			prefix = prefix[:2]
		}
		url := fmt.Sprintf("https://resources.download.minecraft.net/%s/%s", prefix, obj.Hash)
		entries = append(entries, Entry{Kind: KindAsset, SHA1: obj.Hash, URL: url, Dest: layout.AssetObject(obj.Hash)})
	}
	return entries
}

// PlanClientJar plans the version jar itself, or nil if the descriptor
// carries no client download (server-only descriptors, out of scope but
// harmless to guard against).
func PlanClientJar(d descriptor.Descriptor, layout paths.Layout, label string) *Entry {
	if d.Downloads.Client == nil {
		return nil
	}
	art := d.Downloads.Client
	return &Entry{Kind: KindClientJar, SHA1: art.SHA1, URL: art.URL, Dest: layout.VersionJar(label)}
}
