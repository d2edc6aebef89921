package install

import (
	"io"
	"os"
	"path/filepath"

	"github.com/quasarlabs/ignite/internal/archiveutil"
	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/paths"
)

// MaterializeLegacyAssets copies asset objects into the legacy virtual
// and/or resources layouts an old descriptor's asset index asks for. Both
// are copied when both flags are set (§9 open-question decision: copy both
// defensively rather than preferring one).
func MaterializeLegacyAssets(index descriptor.AssetIndex, layout paths.Layout) error {
	if !index.Virtual && !index.MapToResources {
		return nil
	}

	for name, obj := range index.Objects {
		src := layout.AssetObject(obj.Hash)
		if index.Virtual {
			if err := copyIfStale(src, layout.AssetVirtualLegacy(name), obj.Hash); err != nil {
				return err
			}
		}
		if index.MapToResources {
			if err := copyIfStale(src, layout.Resource(name), obj.Hash); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyIfStale copies src to dest unless dest already matches wantSHA1,
// overwriting a stale or absent copy and creating parent directories.
func copyIfStale(src, dest, wantSHA1 string) error {
	if archiveutil.MatchesSHA1(dest, wantSHA1) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.IO(err)
	}

	in, err := os.Open(src)
	if err != nil {
		return errs.IO(err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errs.IO(err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errs.IO(err)
	}
	return nil
}
