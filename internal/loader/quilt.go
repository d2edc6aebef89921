package loader

import (
	"context"

	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/events"
	"github.com/quasarlabs/ignite/internal/fetch"
	"github.com/quasarlabs/ignite/internal/paths"
)

// QuiltMetaURL is the Quilt meta server root. Var rather than const so tests
// can point it at a local server.
var QuiltMetaURL = "https://meta.quiltmc.org/v3"

// Quilt merges a Quilt loader profile into a vanilla descriptor (§4.5). The
// Quilt meta server mirrors Fabric's API shape exactly (it is a fork), so
// this reuses the same merge routine against a different root URL.
type Quilt struct {
	LoaderVersion string
}

func (q Quilt) Merge(ctx context.Context, client *fetch.Client, vanilla descriptor.Descriptor, layout paths.Layout, label string, sink *events.Sink) (descriptor.Descriptor, error) {
	return mergeFabricLike(ctx, client, QuiltMetaURL, q.LoaderVersion, vanilla)
}
