// Package ignite is the library surface described in §6: Install acquires
// everything a configured version/loader combination needs, Launch spawns
// it. Authentication, configuration loading, and any command-line or TUI
// front-end are the caller's concern — this package only consumes an
// already-resolved identity (§1's explicit non-goals).
package ignite

import (
	"context"
	"os"
	"runtime"

	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/events"
	"github.com/quasarlabs/ignite/internal/fetch"
	"github.com/quasarlabs/ignite/internal/install"
	"github.com/quasarlabs/ignite/internal/launch"
	"github.com/quasarlabs/ignite/internal/launchconfig"
	"github.com/quasarlabs/ignite/internal/loader"
	"github.com/quasarlabs/ignite/internal/paths"
	"github.com/quasarlabs/ignite/internal/processor"
	"github.com/quasarlabs/ignite/internal/resolve"
	"github.com/quasarlabs/ignite/internal/rules"
)

// ChildHandle is a spawned game process; Wait blocks until it exits.
type ChildHandle = launch.ChildHandle

// Install resolves, downloads, and (for Forge) post-processes everything
// config's version/loader combination needs, leaving the label fully
// reproducible for a later offline Launch. A nil sink is valid; no progress
// events are emitted.
func Install(ctx context.Context, config launchconfig.LaunchConfig, sink *events.Sink) error {
	client := fetch.NewClient(config.ResolvedLogger())
	layout := paths.New(config.GameRoot, config.RuntimeRoot)
	label := resolvedLabel(config)
	env := hostEnv()

	d, err := resolve.Resolve(ctx, client, layout, config.VersionID, label, merger(config), sink)
	if err != nil {
		return err
	}

	if err := install.Run(ctx, client, layout, d, label, env, sink); err != nil {
		return err
	}

	if len(d.Processors) == 0 {
		return nil
	}

	javaBin := layout.RuntimeJavaBinary(d.JavaComponent())
	d, err = processor.Run(ctx, layout, label, d, javaBin)
	return err
}

// Launch spawns the label's game process from the files a previous Install
// left on disk. It downloads no libraries, assets or runtime files; its only
// network access is resolve.Resolve fetching the descriptor when the label's
// persisted descriptor is absent, and it then fails if the Java runtime is
// missing.
func Launch(ctx context.Context, config launchconfig.LaunchConfig, sink *events.Sink) (*ChildHandle, error) {
	client := fetch.NewClient(config.ResolvedLogger())
	layout := paths.New(config.GameRoot, config.RuntimeRoot)
	label := resolvedLabel(config)

	d, err := resolve.Resolve(ctx, client, layout, config.VersionID, label, merger(config), sink)
	if err != nil {
		return nil, err
	}

	javaBin := layout.RuntimeJavaBinary(d.JavaComponent())
	if _, statErr := os.Stat(javaBin); statErr != nil {
		return nil, errs.NotFound("java runtime for " + d.JavaComponent() + "; run Install first")
	}

	return launch.New(config, d, label, javaBin, sink).Launch(ctx)
}

// resolvedLabel applies the Forge legacy-vs-modern label suffix (§4.5) on
// top of config.ResolvedLabel before any network call, since the suffix
// changes which descriptor file on disk is canonical for a given Forge
// build.
func resolvedLabel(config launchconfig.LaunchConfig) string {
	label := config.ResolvedLabel()
	if config.Loader == nil || config.Loader.Name != launchconfig.Forge {
		return label
	}
	if loader.IsLegacy(config.Loader.Version) {
		return label + loader.LegacySuffix(config.VersionID)
	}
	return label
}

func merger(config launchconfig.LaunchConfig) resolve.Merger {
	if config.Loader == nil {
		return nil
	}
	switch config.Loader.Name {
	case launchconfig.Fabric:
		return loader.Fabric{LoaderVersion: config.Loader.Version}
	case launchconfig.Quilt:
		return loader.Quilt{LoaderVersion: config.Loader.Version}
	case launchconfig.Forge:
		return loader.Forge{LoaderVersion: config.Loader.Version}
	default:
		return nil
	}
}

func hostEnv() rules.Env {
	return rules.Env{OSName: rules.MojangOSName(runtime.GOOS), OSArch: rules.MojangArch(runtime.GOARCH)}
}
