package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs"

	"github.com/quasarlabs/ignite/internal/archiveutil"
	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/events"
	"github.com/quasarlabs/ignite/internal/fetch"
	"github.com/quasarlabs/ignite/internal/maven"
	"github.com/quasarlabs/ignite/internal/paths"
)

// ForgeMavenURL is the Forge artifact repository root. Var rather than const
// so tests can point it at a local server.
var ForgeMavenURL = "https://maven.minecraftforge.net"

// legacyForgeCutoff is the first Forge build that ships an
// installer-declared processor pipeline (install_profile.json with
// processors[]/data{}). Builds before it are a single FML/LaunchWrapper
// library plus legacy tweaker arguments and no processors at all. See
// DESIGN.md for why this specific cutoff is taken as given rather than
// re-derived from Forge's actual historical schema changes.
var legacyForgeCutoff = [4]int{14, 23, 5, 2851}

// forgeDataVendor namespaces the Maven coordinates this package synthesises
// for installer data entries that point at jar-internal paths (§4.5's
// "{vendor}:forge-installer-extracts:{version}:{basename}@{ext}" scheme).
const forgeDataVendor = "ignite"

// Forge merges a Forge installer's declared libraries, arguments and (for
// modern builds) post-install processor pipeline into a vanilla descriptor
// (§4.5). Unlike Fabric/Quilt, the loader's own metadata is not a single
// JSON document served over HTTP — it ships inside an installer jar that
// must be downloaded and read apart.
type Forge struct {
	LoaderVersion string
}

func (f Forge) Merge(ctx context.Context, client *fetch.Client, vanilla descriptor.Descriptor, layout paths.Layout, label string, sink *events.Sink) (descriptor.Descriptor, error) {
	installerURL := fmt.Sprintf("%s/net/minecraftforge/forge/%s-%s/forge-%s-%s-installer.jar",
		ForgeMavenURL, vanilla.ID, f.LoaderVersion, vanilla.ID, f.LoaderVersion)

	tmpDir, err := os.MkdirTemp(layout.GameRoot, ".forge-installer-*")
	if err != nil {
		return descriptor.Descriptor{}, errs.IO(err)
	}
	defer os.RemoveAll(tmpDir)

	installerPath := filepath.Join(tmpDir, "installer.jar")
	if _, err := client.Download(ctx, installerURL, installerPath, sink); err != nil {
		return descriptor.Descriptor{}, err
	}

	if IsLegacy(f.LoaderVersion) {
		return mergeLegacyForge(vanilla, layout, installerPath, f.LoaderVersion)
	}
	return mergeModernForge(vanilla, layout, label, installerPath)
}

// IsLegacy reports whether loaderVersion's build number predates the
// processor-pipeline cutoff. Exported so the install orchestrator can decide
// the label suffix before a merge ever runs.
func IsLegacy(loaderVersion string) bool {
	return compareForgeBuild(loaderVersion, legacyForgeCutoff) < 0
}

// LegacySuffix is the label suffix §4.5 applies to legacy Forge installs:
// "-mc" followed by the game version id with dots removed, so e.g. Forge
// 10.13.4.1614 on 1.7.10 installs under label "...-mc1710".
func LegacySuffix(gameID string) string {
	return "-mc" + strings.ReplaceAll(gameID, ".", "")
}

// compareForgeBuild compares a dotted Forge loader version against a 4-tuple
// cutoff, returning <0, 0 or >0. Fewer than four components pad with zeros; a
// non-numeric component reads as 0.
func compareForgeBuild(version string, cutoff [4]int) int {
	parts := strings.SplitN(version, ".", 4)
	var nums [4]int
	for i := 0; i < len(parts) && i < 4; i++ {
		n, _ := strconv.Atoi(parts[i])
		nums[i] = n
	}
	for i := 0; i < 4; i++ {
		if nums[i] != cutoff[i] {
			return nums[i] - cutoff[i]
		}
	}
	return 0
}

// mergeLegacyForge handles pre-processor-pipeline Forge: a single library
// extracted directly from the installer jar, and whatever arguments/
// main-class the installer's embedded version descriptor declares.
func mergeLegacyForge(vanilla descriptor.Descriptor, layout paths.Layout, installerPath, loaderVersion string) (descriptor.Descriptor, error) {
	profile, err := readInstallerVersionDescriptor(installerPath)
	if err != nil {
		return descriptor.Descriptor{}, err
	}

	coordinate := fmt.Sprintf("net.minecraftforge:forge:%s-%s", vanilla.ID, loaderVersion)
	libPath, err := maven.PathFromArtifact(coordinate)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	if err := archiveutil.ExtractZipEntry(installerPath, "maven/"+libPath, layout.Library(libPath)); err != nil {
		return descriptor.Descriptor{}, err
	}

	forgeLib := descriptor.Library{Name: coordinate}
	loaderLibs := append(append([]descriptor.Library{}, profile.Libraries...), forgeLib)

	merged := vanilla
	merged.Libraries = dedupeAndAppend(vanilla.Libraries, loaderLibs)
	merged.Arguments, merged.MinecraftArguments = mergeArguments(vanilla, profile.Arguments, profile.MinecraftArguments)
	if profile.MainClass != "" {
		merged.MainClass = profile.MainClass
	}
	return merged, nil
}

// readInstallerVersionDescriptor reads a legacy installer's embedded version
// descriptor, which is either a standalone version.json or nested under
// install_profile.json's "versionInfo" key in older installers.
func readInstallerVersionDescriptor(installerPath string) (descriptor.Descriptor, error) {
	if data, err := archiveutil.ReadZipEntry(installerPath, "version.json"); err == nil {
		var d descriptor.Descriptor
		if err := json.Unmarshal(data, &d); err != nil {
			return descriptor.Descriptor{}, errs.Serde(err)
		}
		return d, nil
	}

	data, err := archiveutil.ReadZipEntry(installerPath, "install_profile.json")
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	var wrapper struct {
		VersionInfo descriptor.Descriptor `json:"versionInfo"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return descriptor.Descriptor{}, errs.Serde(err)
	}
	return wrapper.VersionInfo, nil
}

// installProfile is the modern Forge install_profile.json shape: the
// installer's own libraries (classpath-only, never argument-substituted) and
// the processor pipeline. The data table is parsed separately with gabs
// (see parseForgeData) since its values are genuinely heterogeneous across
// Forge releases — sometimes a bare string, sometimes a {client,server}
// object — which a single struct field can't represent without its own
// custom unmarshaler.
type installProfile struct {
	Minecraft  string                 `json:"minecraft"`
	Json       string                 `json:"json"`
	Processors []descriptor.Processor `json:"processors"`
	Libraries  []descriptor.Library   `json:"libraries"`
}

func mergeModernForge(vanilla descriptor.Descriptor, layout paths.Layout, label, installerPath string) (descriptor.Descriptor, error) {
	profileData, err := archiveutil.ReadZipEntry(installerPath, "install_profile.json")
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	var profile installProfile
	if err := json.Unmarshal(profileData, &profile); err != nil {
		return descriptor.Descriptor{}, errs.Serde(err)
	}
	installerData, err := parseForgeData(profileData)
	if err != nil {
		return descriptor.Descriptor{}, err
	}

	versionEntry := strings.TrimPrefix(profile.Json, "/")
	if versionEntry == "" {
		versionEntry = "version.json"
	}
	versionData, err := archiveutil.ReadZipEntry(installerPath, versionEntry)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	var versionJSON descriptor.Descriptor
	if err := json.Unmarshal(versionData, &versionJSON); err != nil {
		return descriptor.Descriptor{}, errs.Serde(err)
	}

	installerLibNames := make(map[string]bool, len(profile.Libraries))
	for _, l := range profile.Libraries {
		installerLibNames[maven.ArtifactName(l.Name)] = true
	}

	loaderLibs := append(append([]descriptor.Library{}, versionJSON.Libraries...), profile.Libraries...)

	merged := vanilla
	merged.Libraries = dedupeAndAppend(vanilla.Libraries, loaderLibs)
	for i := range merged.Libraries {
		if installerLibNames[maven.ArtifactName(merged.Libraries[i].Name)] {
			merged.Libraries[i].SkipArgs = true
		}
	}

	merged.Arguments, merged.MinecraftArguments = mergeArguments(vanilla, versionJSON.Arguments, versionJSON.MinecraftArguments)
	if versionJSON.MainClass != "" {
		merged.MainClass = versionJSON.MainClass
	}

	data, err := synthesizeForgeData(installerPath, layout, installerData, vanilla.ID, label)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	merged.Data = data
	merged.Processors = profile.Processors

	if err := archiveutil.ExtractZipPrefix(installerPath, "maven/", layout.LibrariesDir()); err != nil {
		return descriptor.Descriptor{}, err
	}

	return merged, nil
}

// parseForgeData reads install_profile.json's "data" table with gabs rather
// than a fixed struct, since a data entry's value is sometimes a bare string
// and sometimes a {client,server} object depending on the Forge release.
func parseForgeData(raw []byte) (map[string]descriptor.DataEntry, error) {
	parsed, err := gabs.ParseJSON(raw)
	if err != nil {
		return nil, errs.Serde(err)
	}

	result := make(map[string]descriptor.DataEntry)
	dataNode := parsed.Search("data")
	if dataNode == nil {
		return result, nil
	}
	children, err := dataNode.ChildrenMap()
	if err != nil {
		return result, nil
	}
	for key, child := range children {
		switch v := child.Data().(type) {
		case string:
			result[key] = descriptor.DataEntry{Client: v, Server: v}
		case map[string]interface{}:
			client, _ := v["client"].(string)
			server, _ := v["server"].(string)
			result[key] = descriptor.DataEntry{Client: client, Server: server}
		}
	}
	return result, nil
}

// synthesizeForgeData builds the well-known processor data keys (§4.5) and
// overlays the installer's own data table on top, resolving any
// jar-internal-path client value in the installer table along the way.
// Server values are carried through unchanged.
func synthesizeForgeData(installerPath string, layout paths.Layout, installerData map[string]descriptor.DataEntry, gameID, label string) (map[string]descriptor.DataEntry, error) {
	version := gameID + "-" + label

	extracted := make(map[string]descriptor.DataEntry, len(installerData))
	for key, entry := range installerData {
		client, err := extractForgeDataValue(installerPath, layout, entry.Client, version)
		if err != nil {
			return nil, err
		}
		extracted[key] = descriptor.DataEntry{Client: client, Server: entry.Server}
	}

	data := map[string]descriptor.DataEntry{
		"SIDE":              {Client: "client"},
		"MINECRAFT_VERSION": {Client: gameID},
		"ROOT":              {Client: layout.GameRoot},
		"LIBRARY_DIR":       {Client: layout.LibrariesDir()},
		"MINECRAFT_JAR":     {Client: layout.VersionJar(label)},
	}
	for k, v := range extracted {
		data[k] = v
	}
	return data, nil
}

// extractForgeDataValue rewrites a "/"-prefixed jar-internal path into a
// "[group:artifact:version:classifier@ext]" library coordinate, extracting
// the referenced entry into the libraries directory so the processor runner
// resolves it the same way it resolves any other classpath entry. Any other
// value (a literal or an already-bracketed coordinate) passes through
// unchanged.
func extractForgeDataValue(installerPath string, layout paths.Layout, value, version string) (string, error) {
	if !strings.HasPrefix(value, "/") {
		return value, nil
	}

	entryName := strings.TrimPrefix(value, "/")
	base := filepath.Base(entryName)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	if ext == "" {
		ext = "bin"
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))

	coordinate := fmt.Sprintf("%s:forge-installer-extracts:%s:%s@%s", forgeDataVendor, version, name, ext)
	path, err := maven.PathFromArtifact(coordinate)
	if err != nil {
		return "", err
	}
	if err := archiveutil.ExtractZipEntry(installerPath, entryName, layout.Library(path)); err != nil {
		return "", err
	}
	return "[" + coordinate + "]", nil
}
