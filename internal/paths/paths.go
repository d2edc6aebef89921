// Package paths implements the deterministic filesystem layout under a game
// root (C5). Every other component resolves a file location through this
// package rather than joining path components itself, so the layout only
// needs to change in one place.
//
// Grounded on the teacher's internal/config/config.go, which owns the
// equivalent "where do things live on disk" concern; the JSON user-config
// load/save half of that file has no home here (see DESIGN.md), only its
// path-layout role survives, generalised from a fixed install dir to an
// arbitrary game root plus an independent runtime root.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Layout resolves every on-disk location derived from a game root and an
// optional separate Java runtime root.
type Layout struct {
	GameRoot    string
	RuntimeRoot string
}

// New builds a Layout. If runtimeRoot is empty, the runtime is stored under
// gameRoot/runtime.
func New(gameRoot, runtimeRoot string) Layout {
	if runtimeRoot == "" {
		runtimeRoot = filepath.Join(gameRoot, "runtime")
	}
	return Layout{GameRoot: gameRoot, RuntimeRoot: runtimeRoot}
}

func (l Layout) VersionsDir() string { return filepath.Join(l.GameRoot, "versions") }

func (l Layout) VersionDir(label string) string { return filepath.Join(l.VersionsDir(), label) }

// VersionDescriptor is the merged descriptor JSON for a label, the canonical
// record other components key the repair predicate on.
func (l Layout) VersionDescriptor(label string) string {
	return filepath.Join(l.VersionDir(label), label+".json")
}

func (l Layout) VersionJar(label string) string {
	return filepath.Join(l.VersionDir(label), label+".jar")
}

func (l Layout) LibrariesDir() string { return filepath.Join(l.GameRoot, "libraries") }

// Library resolves a repository-relative artifact path (as produced by
// maven.PathFromArtifact) under libraries/.
func (l Layout) Library(relPath string) string {
	return filepath.Join(l.LibrariesDir(), filepath.FromSlash(relPath))
}

func (l Layout) AssetsDir() string { return filepath.Join(l.GameRoot, "assets") }

func (l Layout) AssetIndexesDir() string { return filepath.Join(l.AssetsDir(), "indexes") }

func (l Layout) AssetIndex(id string) string {
	return filepath.Join(l.AssetIndexesDir(), id+".json")
}

func (l Layout) AssetObjectsDir() string { return filepath.Join(l.AssetsDir(), "objects") }

// AssetObject resolves a content-addressed asset object by its SHA-1 hash.
func (l Layout) AssetObject(hash string) string {
	prefix := hash
	if len(prefix) >= 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(l.AssetObjectsDir(), prefix, hash)
}

func (l Layout) AssetVirtualLegacyDir() string {
	return filepath.Join(l.AssetsDir(), "virtual", "legacy")
}

func (l Layout) AssetVirtualLegacy(name string) string {
	return filepath.Join(l.AssetVirtualLegacyDir(), filepath.FromSlash(name))
}

func (l Layout) ResourcesDir() string { return filepath.Join(l.GameRoot, "resources") }

func (l Layout) Resource(name string) string {
	return filepath.Join(l.ResourcesDir(), filepath.FromSlash(name))
}

func (l Layout) NativesDir(gameID string) string {
	return filepath.Join(l.GameRoot, "natives", gameID)
}

func (l Layout) RuntimeComponentDir(component string) string {
	return filepath.Join(l.RuntimeRoot, component)
}

// RuntimeJavaBinary is the java executable for a runtime component, per §4.8
// step 6: macOS runtimes are laid out as a jre.bundle, so the binary lives at
// jre.bundle/Contents/Home/bin/java there; everywhere else it is a plain
// bin/java(.exe), with the unix binary's executable bit set explicitly after
// install (see internal/java).
func (l Layout) RuntimeJavaBinary(component string) string {
	if runtime.GOOS == "darwin" {
		return filepath.Join(l.RuntimeComponentDir(component), "jre.bundle", "Contents", "Home", "bin", "java")
	}
	bin := "java"
	if runtime.GOOS == "windows" {
		bin = "java.exe"
	}
	return filepath.Join(l.RuntimeComponentDir(component), "bin", bin)
}

// ClasspathSeparator is ';' on Windows, ':' elsewhere, fixed at build time
// per target rather than resolved from the running host.
func ClasspathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// EnsureDirs creates the top-level directories every install touches.
func (l Layout) EnsureDirs() error {
	dirs := []string{
		l.VersionsDir(),
		l.LibrariesDir(),
		l.AssetIndexesDir(),
		l.AssetObjectsDir(),
		l.AssetVirtualLegacyDir(),
		l.ResourcesDir(),
		l.RuntimeRoot,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
