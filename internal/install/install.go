package install

import (
	"context"
	"encoding/json"
	"os"

	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/events"
	"github.com/quasarlabs/ignite/internal/fetch"
	"github.com/quasarlabs/ignite/internal/instance"
	"github.com/quasarlabs/ignite/internal/java"
	"github.com/quasarlabs/ignite/internal/paths"
	"github.com/quasarlabs/ignite/internal/rules"
)

// Run executes the full install pipeline for an already-resolved label: it
// ensures the asset index, plans the client jar / libraries / assets,
// downloads everything the repair predicate flags as missing or stale,
// extracts natives, materialises legacy asset layouts, ensures the Java
// runtime, and records the label as fully downloaded. The strict ordering
// from §5 (descriptor -> asset-index -> client jar -> batch -> natives ->
// processors) is the call order below; the processor pipeline itself is the
// caller's responsibility once this returns, since it needs the merged
// descriptor's Processors/Data fields round-tripped through persistence.
func Run(ctx context.Context, client *fetch.Client, layout paths.Layout, d descriptor.Descriptor, label string, env rules.Env, sink *events.Sink) error {
	if err := layout.EnsureDirs(); err != nil {
		return errs.IO(err)
	}

	index, err := ensureAssetIndex(ctx, client, layout, d.AssetIndex)
	if err != nil {
		return err
	}

	var entries []Entry
	if clientJar := PlanClientJar(d, layout, label); clientJar != nil {
		entries = append(entries, *clientJar)
	}
	entries = append(entries, PlanAssets(index, layout)...)

	libEntries, natives := PlanLibraries(d.Libraries, layout, env, layout.NativesDir(d.ID))
	entries = append(entries, libEntries...)

	var pairs []fetch.Pair
	for _, e := range entries {
		if NeedsDownload(e) {
			pairs = append(pairs, fetch.Pair{URL: e.URL, Dest: e.Dest})
		}
	}
	if err := client.DownloadAll(ctx, pairs, sink); err != nil {
		return err
	}

	if len(natives) > 0 {
		if err := ExtractNatives(natives, layout.NativesDir(d.ID)); err != nil {
			return err
		}
	}

	if err := MaterializeLegacyAssets(index, layout); err != nil {
		return err
	}

	if _, err := java.EnsureRuntime(ctx, client, layout, d.JavaComponent(), sink); err != nil {
		return err
	}

	return instance.MarkInstalled(layout, label)
}

// ensureAssetIndex downloads the asset index JSON if it's missing or stale,
// then parses it.
func ensureAssetIndex(ctx context.Context, client *fetch.Client, layout paths.Layout, ref descriptor.AssetIndexRef) (descriptor.AssetIndex, error) {
	dest := layout.AssetIndex(ref.ID)
	if NeedsDownload(Entry{SHA1: ref.SHA1, URL: ref.URL, Dest: dest}) {
		if _, err := client.Download(ctx, ref.URL, dest, nil); err != nil {
			return descriptor.AssetIndex{}, err
		}
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return descriptor.AssetIndex{}, errs.IO(err)
	}
	var index descriptor.AssetIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return descriptor.AssetIndex{}, errs.Serde(err)
	}
	return index, nil
}
