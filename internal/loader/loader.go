// Package loader implements the Fabric/Quilt/Forge mod-loader adapters (C7).
// Each adapter is a Merge(vanilla descriptor) -> (merged descriptor) function
// satisfying internal/resolve.Merger, invoked by the version resolver once a
// loader is configured.
//
// Grounded on original_source/src/minecraft/loader/mod.rs's Loader trait
// shape (one Merge method per loader kind, no inheritance hierarchy) and the
// common merge algorithm of spec §4.5: library dedup by artifact name,
// URL-only library synthesis, argument list concatenation, and a main-class
// override.
package loader

import (
	"strings"

	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/maven"
)

// dedupeAndAppend implements §4.5 step 2-3: any vanilla library whose
// artifact name collides with a loader library is dropped, then the loader
// libraries are appended (first occurrence wins within that set), each
// synthesising a downloads.artifact block when it only carries a bare URL.
func dedupeAndAppend(vanillaLibs, loaderLibs []descriptor.Library) []descriptor.Library {
	loaderNames := make(map[string]bool, len(loaderLibs))
	for _, l := range loaderLibs {
		loaderNames[maven.ArtifactName(l.Name)] = true
	}

	merged := make([]descriptor.Library, 0, len(vanillaLibs)+len(loaderLibs))
	for _, l := range vanillaLibs {
		if loaderNames[maven.ArtifactName(l.Name)] {
			continue
		}
		merged = append(merged, l)
	}

	seen := make(map[string]bool, len(loaderLibs))
	for _, l := range loaderLibs {
		name := maven.ArtifactName(l.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, synthesizeArtifact(l))
	}
	return merged
}

// synthesizeArtifact implements §4.5 step 3: a library carrying a bare URL
// but no explicit downloads.artifact gets one synthesised from its Maven
// coordinate path.
func synthesizeArtifact(l descriptor.Library) descriptor.Library {
	if l.URL == "" {
		return l
	}
	if l.Downloads != nil && l.Downloads.Artifact != nil {
		return l
	}
	path, err := maven.PathFromArtifact(l.Name)
	if err != nil {
		return l
	}
	url := strings.TrimSuffix(l.URL, "/") + "/" + path
	artifact := &descriptor.Artifact{Path: path, URL: url}
	if l.Downloads != nil {
		artifact.SHA1 = ""
		l.Downloads.Artifact = artifact
	} else {
		l.Downloads = &descriptor.LibraryDownloads{Artifact: artifact}
	}
	return l
}

// mergeArguments implements §4.5 step 4: modern arguments are appended after
// vanilla's (in order), legacy minecraft_arguments are space-joined.
func mergeArguments(vanilla descriptor.Descriptor, loaderArgs *descriptor.Arguments, loaderLegacy string) (*descriptor.Arguments, string) {
	if loaderArgs != nil {
		merged := &descriptor.Arguments{}
		if vanilla.Arguments != nil {
			merged.Game = append(merged.Game, vanilla.Arguments.Game...)
			merged.JVM = append(merged.JVM, vanilla.Arguments.JVM...)
		}
		merged.Game = append(merged.Game, loaderArgs.Game...)
		merged.JVM = append(merged.JVM, loaderArgs.JVM...)
		return merged, vanilla.MinecraftArguments
	}

	if loaderLegacy != "" {
		legacy := vanilla.MinecraftArguments
		if legacy != "" {
			legacy = legacy + " " + loaderLegacy
		} else {
			legacy = loaderLegacy
		}
		return vanilla.Arguments, legacy
	}

	return vanilla.Arguments, vanilla.MinecraftArguments
}
