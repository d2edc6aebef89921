// Package java resolves and acquires the Java runtime a version descriptor
// requires: per-file acquisition of Mojang's managed runtime bundles (this
// file), per §4.6 step 3 and §4.8, and, separately, detection of existing
// system installations (detect.go). EnsureRuntime does not consult the
// detector.
package java

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/events"
	"github.com/quasarlabs/ignite/internal/fetch"
	"github.com/quasarlabs/ignite/internal/paths"
)

// RuntimeManifestURL is Mojang's global Java runtime index, keyed by
// platform then component name. Var rather than const so tests can point it
// at a local server.
var RuntimeManifestURL = "https://piston-meta.mojang.com/v1/products/java-runtime/2ec0cc96c44e5a76b9c8b7c39df7210883d12871/all.json"

// PlatformKey maps the running host to the key the runtime manifest indexes
// its platforms under.
func PlatformKey() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "mac-os-arm64", nil
		}
		return "mac-os", nil
	case "linux":
		if runtime.GOARCH == "386" {
			return "linux-i386", nil
		}
		return "linux", nil
	case "windows":
		switch runtime.GOARCH {
		case "386":
			return "windows-x86", nil
		case "arm64":
			return "windows-arm64", nil
		default:
			return "windows-x64", nil
		}
	default:
		return "", errs.UnsupportedArchitecture(runtime.GOOS + "/" + runtime.GOARCH)
	}
}

// EnsureRuntime materialises the runtime component under layout's runtime
// root, downloading it from the Mojang runtime manifest if the component's
// java binary is not already present, and returns the resolved binary path.
func EnsureRuntime(ctx context.Context, client *fetch.Client, layout paths.Layout, component string, sink *events.Sink) (string, error) {
	binPath := layout.RuntimeJavaBinary(component)
	if _, err := os.Stat(binPath); err == nil {
		return binPath, nil
	}

	platformKey, err := PlatformKey()
	if err != nil {
		return "", err
	}

	manifest, err := fetch.FetchJSON[descriptor.JavaRuntimeManifest](ctx, client, RuntimeManifestURL)
	if err != nil {
		return "", err
	}

	platform, ok := manifest[platformKey]
	if !ok {
		return "", errs.UnsupportedArchitecture(platformKey)
	}
	entries, ok := platform[component]
	if !ok || len(entries) == 0 {
		return "", errs.NotFound("java runtime component " + component)
	}

	fileManifest, err := fetch.FetchJSON[descriptor.JavaFileManifest](ctx, client, entries[0].Manifest.URL)
	if err != nil {
		return "", err
	}

	if err := materializeRuntime(ctx, client, layout.RuntimeComponentDir(component), fileManifest, sink); err != nil {
		return "", err
	}

	return binPath, nil
}

// materializeRuntime lays out a component's directories and symlinks
// directly, then batch-downloads its regular files and sets the executable
// bit on every file the manifest marks executable (a no-op on Windows, which
// has no such bit).
func materializeRuntime(ctx context.Context, client *fetch.Client, componentDir string, fileManifest descriptor.JavaFileManifest, sink *events.Sink) error {
	var pairs []fetch.Pair
	var executables []string

	for name, entry := range fileManifest.Files {
		target := filepath.Join(componentDir, filepath.FromSlash(name))

		switch entry.Type {
		case "directory":
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errs.IO(err)
			}
		case "file":
			pairs = append(pairs, fetch.Pair{URL: entry.Downloads.Raw.URL, Dest: target})
			if entry.Executable {
				executables = append(executables, target)
			}
		case "link":
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errs.IO(err)
			}
			os.Remove(target)
			if err := os.Symlink(entry.Target, target); err != nil {
				return errs.IO(err)
			}
		}
	}

	if err := client.DownloadAll(ctx, pairs, sink); err != nil {
		return err
	}

	if runtime.GOOS != "windows" {
		for _, exe := range executables {
			if err := os.Chmod(exe, 0o755); err != nil {
				return errs.IO(err)
			}
		}
	}

	return nil
}
