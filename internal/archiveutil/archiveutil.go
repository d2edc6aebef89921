// Package archiveutil provides the hashing and archive primitives shared by
// the installer, the loader adapters and the Forge processor runner: SHA-1 of
// a file on disk, and three flavours of zip extraction (the whole archive,
// a single named entry, or every entry under a directory prefix).
//
// Whole-archive extraction of native-library jars is handled by
// github.com/mholt/archiver/v3 in install; Java runtimes are downloaded file
// by file and never pass through an archive. The entry-level operations here
// need precision archiver/v3 doesn't expose (read exactly one entry, or only
// entries under one prefix), so they go through the standard archive/zip
// reader directly — Forge installer jars and native-library jars are always
// zip, never tar.
package archiveutil

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"archive/zip"

	"github.com/quasarlabs/ignite/internal/errs"
)

// SHA1File computes the lowercase hex SHA-1 digest of the file at path.
func SHA1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.IO(err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errs.IO(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MatchesSHA1 reports whether the file at path exists and its content hash
// equals want. A missing file or empty want always returns false so callers
// can use this directly in a repair predicate.
func MatchesSHA1(path, want string) bool {
	if want == "" {
		return false
	}
	got, err := SHA1File(path)
	if err != nil {
		return false
	}
	return got == want
}

// ReadZipEntry reads one named entry from a zip archive as bytes, e.g. a
// processor jar's META-INF/MANIFEST.MF or an installer's version.json.
func ReadZipEntry(archivePath, entryName string) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, errs.Zip(err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entryName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errs.Zip(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errs.Zip(err)
		}
		return data, nil
	}
	return nil, errs.NotFound(entryName + " in " + archivePath)
}

// ExtractZipEntry extracts a single named entry from archivePath to dest,
// creating parent directories as needed.
func ExtractZipEntry(archivePath, entryName, dest string) error {
	data, err := ReadZipEntry(archivePath, entryName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.IO(err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return errs.IO(err)
	}
	return nil
}

// ExtractZipPrefix extracts every entry whose name starts with prefix into
// destDir, stripping the prefix from the relative path. Used to pull an
// installer jar's entire "maven/" tree into the libraries directory.
func ExtractZipPrefix(archivePath, prefix, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errs.Zip(err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(f.Name, prefix)
		if rel == "" || f.FileInfo().IsDir() {
			continue
		}

		target := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errs.IO(err)
		}

		rc, err := f.Open()
		if err != nil {
			return errs.Zip(err)
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return errs.IO(err)
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return errs.IO(copyErr)
		}
	}
	return nil
}

// ExtractZip extracts the whole archive into destDir, optionally skipping
// any entry path matching one of the given exclude prefixes (e.g.
// "META-INF/", the only exclusion §4.6 calls out by name).
func ExtractZip(archivePath, destDir string, excludePrefixes []string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errs.Zip(err)
	}
	defer r.Close()

	for _, f := range r.File {
		if excluded(f.Name, excludePrefixes) {
			continue
		}

		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errs.IO(err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errs.IO(err)
		}
		rc, err := f.Open()
		if err != nil {
			return errs.Zip(err)
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return errs.IO(err)
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return errs.IO(copyErr)
		}
	}
	return nil
}

func excluded(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// MainClassFromManifest reads a jar's META-INF/MANIFEST.MF and returns the
// value of the "Main-Class:" line, trimmed, matching §4.7 step 2.
func MainClassFromManifest(jarPath string) (string, error) {
	data, err := ReadZipEntry(jarPath, "META-INF/MANIFEST.MF")
	if err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "Main-Class:"); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", errs.NotFound("Main-Class in " + jarPath)
}
