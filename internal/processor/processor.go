// Package processor runs the Forge post-install processor pipeline (C9):
// sequential, idempotent invocations of installer-provided jars that patch
// the Minecraft client jar, fetch binary patches, or otherwise finish what
// the loader merge alone can't (§4.7).
//
// The teacher has no equivalent of this step at all (mctui never supports
// Forge); grounded on original_source/src/minecraft/forge.rs for the
// substitution rules and the "persist success per processor" idempotence
// requirement, and on the teacher's os/exec usage in launch/launcher.go for
// how a child process is spawned and its stderr captured.
package processor

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/quasarlabs/ignite/internal/archiveutil"
	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/maven"
	"github.com/quasarlabs/ignite/internal/paths"
	"github.com/quasarlabs/ignite/internal/resolve"
)

// Run executes every client-side processor in d that hasn't already
// succeeded, persisting the updated descriptor (with each processor's
// Success flag set) after the full loop so a later run can skip what
// already ran. The first processor that exits non-zero aborts the loop; the
// descriptor is not persisted in that case, so the failed processor and
// everything after it will be retried on the next attempt.
func Run(ctx context.Context, layout paths.Layout, label string, d descriptor.Descriptor, javaBin string) (descriptor.Descriptor, error) {
	for i := range d.Processors {
		p := &d.Processors[i]
		if p.Success || !p.RunsOnClient() {
			continue
		}

		if err := runOne(ctx, layout, d.Data, *p, javaBin); err != nil {
			return d, err
		}
		p.Success = true
	}

	if err := resolve.Persist(layout, label, d); err != nil {
		return d, err
	}
	return d, nil
}

func runOne(ctx context.Context, layout paths.Layout, data map[string]descriptor.DataEntry, p descriptor.Processor, javaBin string) error {
	jarPath, err := resolveLibraryPath(p.Jar, layout)
	if err != nil {
		return err
	}

	mainClass, err := archiveutil.MainClassFromManifest(jarPath)
	if err != nil {
		return err
	}

	classpath, err := buildClasspath(p.Classpath, jarPath, layout)
	if err != nil {
		return err
	}

	args := make([]string, 0, len(p.Args)+3)
	args = append(args, "-cp", classpath, mainClass)
	for _, raw := range p.Args {
		substituted, err := substitute(raw, data, layout)
		if err != nil {
			return err
		}
		args = append(args, substituted)
	}

	cmd := exec.CommandContext(ctx, javaBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errs.Fail(strings.TrimSpace(stderr.String()))
	}
	return nil
}

func buildClasspath(entries []string, jarPath string, layout paths.Layout) (string, error) {
	cp := make([]string, 0, len(entries)+1)
	for _, coord := range entries {
		p, err := resolveLibraryPath(coord, layout)
		if err != nil {
			return "", err
		}
		cp = append(cp, p)
	}
	cp = append(cp, jarPath)
	return strings.Join(cp, paths.ClasspathSeparator()), nil
}

func resolveLibraryPath(coordinate string, layout paths.Layout) (string, error) {
	rel, err := maven.PathFromArtifact(coordinate)
	if err != nil {
		return "", err
	}
	return layout.Library(rel), nil
}

// substitute implements §4.7 step 3: a {KEY} reference resolves through the
// data table (recursing once into a bracketed coordinate if that's what the
// data value holds), a bare [coordinate] resolves directly, anything else is
// passed through literally.
func substitute(raw string, data map[string]descriptor.DataEntry, layout paths.Layout) (string, error) {
	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		key := strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
		entry, ok := data[key]
		if !ok {
			return "", errs.NotFound("processor data key " + key)
		}
		return substitute(entry.Client, data, layout)
	}

	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		coordinate := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		return resolveLibraryPath(coordinate, layout)
	}

	return raw, nil
}
