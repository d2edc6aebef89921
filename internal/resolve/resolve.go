// Package resolve implements the version resolver (C6): fetch the vanilla
// manifest and descriptor, hand off to a loader merge when configured, and
// persist the result atomically so later launches do no network I/O.
//
// Grounded on the teacher's internal/api/mojang.go (GetVersionManifest,
// FindVersion, GetVersionDetails, ResolveVersionDetails's disk-cache
// pattern); the on-disk cache there becomes the canonical persisted
// descriptor here rather than an optional TTL-bound cache.
package resolve

import (
	"context"
	"encoding/json"
	"os"

	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/events"
	"github.com/quasarlabs/ignite/internal/fetch"
	"github.com/quasarlabs/ignite/internal/paths"
)

// ManifestURL is the vanilla version manifest index endpoint. Var rather
// than const so tests can point it at a local server.
var ManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// Merger produces a merged descriptor from a vanilla one, invoked when a
// loader is configured (§4.5). Implemented by internal/loader.
type Merger interface {
	Merge(ctx context.Context, client *fetch.Client, vanilla descriptor.Descriptor, layout paths.Layout, label string, sink *events.Sink) (descriptor.Descriptor, error)
}

// Resolve implements §4.4. If the label's descriptor already exists on disk,
// it is read directly and no network call is made.
func Resolve(ctx context.Context, client *fetch.Client, layout paths.Layout, versionID, label string, merger Merger, sink *events.Sink) (descriptor.Descriptor, error) {
	descPath := layout.VersionDescriptor(label)
	if data, err := os.ReadFile(descPath); err == nil {
		var d descriptor.Descriptor
		if err := json.Unmarshal(data, &d); err != nil {
			return descriptor.Descriptor{}, errs.Serde(err)
		}
		return d, nil
	}

	manifest, err := fetch.FetchJSON[descriptor.Manifest](ctx, client, ManifestURL)
	if err != nil {
		return descriptor.Descriptor{}, err
	}

	entry, ok := manifest.Find(versionID)
	if !ok {
		return descriptor.Descriptor{}, errs.UnknownVersion("vanilla")
	}

	vanilla, err := fetch.FetchJSON[descriptor.Descriptor](ctx, client, entry.URL)
	if err != nil {
		return descriptor.Descriptor{}, err
	}

	merged := vanilla
	if merger != nil {
		merged, err = merger.Merge(ctx, client, vanilla, layout, label, sink)
		if err != nil {
			return descriptor.Descriptor{}, err
		}
	}

	if err := persist(layout, label, merged); err != nil {
		return descriptor.Descriptor{}, err
	}

	return merged, nil
}

// persist writes the descriptor to versions/{label}/{label}.json via a
// tmp-file-then-rename, so the "exists ⇒ complete" invariant the repair
// predicate relies on always holds.
func persist(layout paths.Layout, label string, d descriptor.Descriptor) error {
	dest := layout.VersionDescriptor(label)
	if err := os.MkdirAll(layout.VersionDir(label), 0o755); err != nil {
		return errs.IO(err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
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

// Persist re-exports persist for callers (the Forge processor runner) that
// need to write back an updated descriptor (e.g. persisted per-processor
// success flags) after install-time mutation.
func Persist(layout paths.Layout, label string, d descriptor.Descriptor) error {
	return persist(layout, label, d)
}
