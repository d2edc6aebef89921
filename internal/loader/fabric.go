package loader

import (
	"context"
	"fmt"

	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/events"
	"github.com/quasarlabs/ignite/internal/fetch"
	"github.com/quasarlabs/ignite/internal/paths"
)

// FabricMetaURL is the Fabric meta server root. Var rather than const so
// tests can point it at a local server.
var FabricMetaURL = "https://meta.fabricmc.net/v2"

// Fabric merges a Fabric loader profile into a vanilla descriptor (§4.5): the
// profile/json endpoint already returns a version-descriptor-shaped document
// (mainClass, arguments, libraries), so the merge is the common
// dedupe-then-append algorithm with no Fabric-specific post-processing.
type Fabric struct {
	LoaderVersion string
}

func (f Fabric) Merge(ctx context.Context, client *fetch.Client, vanilla descriptor.Descriptor, layout paths.Layout, label string, sink *events.Sink) (descriptor.Descriptor, error) {
	return mergeFabricLike(ctx, client, FabricMetaURL, f.LoaderVersion, vanilla)
}

type metaListEntry struct {
	Version string `json:"version"`
}

// mergeFabricLike implements the Fabric and Quilt merge, which share the same
// meta-server API shape (versions/loader, versions/game,
// versions/loader/{game}/{loader}/profile/json).
func mergeFabricLike(ctx context.Context, client *fetch.Client, metaURL, loaderVersion string, vanilla descriptor.Descriptor) (descriptor.Descriptor, error) {
	loaders, err := fetch.FetchJSON[[]metaListEntry](ctx, client, metaURL+"/versions/loader")
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	if !containsVersion(loaders, loaderVersion) {
		return descriptor.Descriptor{}, errs.UnknownVersion("loader " + loaderVersion)
	}

	games, err := fetch.FetchJSON[[]metaListEntry](ctx, client, metaURL+"/versions/game")
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	if !containsVersion(games, vanilla.ID) {
		return descriptor.Descriptor{}, errs.UnknownVersion("game " + vanilla.ID)
	}

	profileURL := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", metaURL, vanilla.ID, loaderVersion)
	profile, err := fetch.FetchJSON[descriptor.Descriptor](ctx, client, profileURL)
	if err != nil {
		return descriptor.Descriptor{}, err
	}

	merged := vanilla
	merged.Libraries = dedupeAndAppend(vanilla.Libraries, profile.Libraries)
	merged.Arguments, merged.MinecraftArguments = mergeArguments(vanilla, profile.Arguments, profile.MinecraftArguments)
	if profile.MainClass != "" {
		merged.MainClass = profile.MainClass
	}
	return merged, nil
}

func containsVersion(list []metaListEntry, version string) bool {
	for _, e := range list {
		if e.Version == version {
			return true
		}
	}
	return false
}
