package install

import (
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v3"

	"github.com/quasarlabs/ignite/internal/errs"
)

// metaInfDir is stripped out of extracted native jars; it carries the jar's
// own manifest/signature files, never anything the game loads at runtime.
const metaInfDir = "META-INF"

// ExtractNatives unpacks every planned native-classifier jar into destDir,
// using archiver/v3's format-sniffing whole-archive extraction rather than
// archiveutil's entry-precision helpers, since a native jar is unpacked in
// full (§4.6, "after batch completion: extract the archive's contents").
func ExtractNatives(jobs []NativeJob, destDir string) error {
	for _, job := range jobs {
		if err := archiver.Unarchive(job.ArchivePath, destDir); err != nil {
			return errs.Zip(err)
		}
	}
	return os.RemoveAll(filepath.Join(destDir, metaInfDir))
}
