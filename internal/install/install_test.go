package install

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasarlabs/ignite/internal/archiveutil"
	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/fetch"
	"github.com/quasarlabs/ignite/internal/instance"
	"github.com/quasarlabs/ignite/internal/paths"
	"github.com/quasarlabs/ignite/internal/rules"
)

func TestNeedsDownload_MissingFile(t *testing.T) {
	e := Entry{Dest: filepath.Join(t.TempDir(), "missing")}
	if !NeedsDownload(e) {
		t.Error("expected true for a missing destination")
	}
}

func TestNeedsDownload_ExistingNoHashTrusted(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(dest, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if NeedsDownload(Entry{Dest: dest}) {
		t.Error("expected false: existing file with no known hash is trusted")
	}
}

func TestNeedsDownload_HashMismatchRedownloads(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(dest, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !NeedsDownload(Entry{Dest: dest, SHA1: "deadbeef"}) {
		t.Error("expected true for a hash mismatch")
	}
}

func TestPlanLibraries_SplitsNativesFromPlainArtifacts(t *testing.T) {
	layout := paths.New(t.TempDir(), "")
	env := rules.Env{OSName: "linux", OSArch: "x64"}

	libs := []descriptor.Library{
		{
			Name: "org.lwjgl:lwjgl:3.3.1",
			Downloads: &descriptor.LibraryDownloads{
				Artifact: &descriptor.Artifact{Path: "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar", SHA1: "aaa", URL: "https://example/lwjgl.jar"},
			},
		},
		{
			Name:    "org.lwjgl:lwjgl:3.3.1:natives-linux",
			Natives: map[string]string{"linux": "natives-linux"},
			Downloads: &descriptor.LibraryDownloads{
				Classifiers: map[string]*descriptor.Artifact{
					"natives-linux": {Path: "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar", SHA1: "bbb", URL: "https://example/natives.jar"},
				},
			},
		},
		{
			// Windows-only native classifier: no entry for linux, should be skipped.
			Name:    "org.lwjgl:lwjgl:3.3.1:natives-windows",
			Natives: map[string]string{"windows": "natives-windows"},
			Downloads: &descriptor.LibraryDownloads{
				Classifiers: map[string]*descriptor.Artifact{
					"natives-windows": {Path: "x.jar", SHA1: "ccc", URL: "https://example/win.jar"},
				},
			},
		},
	}

	nativesDir := filepath.Join(t.TempDir(), "natives")
	entries, natives := PlanLibraries(libs, layout, env, nativesDir)

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if len(natives) != 1 {
		t.Fatalf("len(natives) = %d, want 1", len(natives))
	}
	if natives[0].ArchivePath != layout.Library("org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar") {
		t.Errorf("native archive path = %q", natives[0].ArchivePath)
	}
}

func TestPlanLibraries_SkipsNativesWhenDirAlreadyPopulated(t *testing.T) {
	layout := paths.New(t.TempDir(), "")
	env := rules.Env{OSName: "linux", OSArch: "x64"}

	libs := []descriptor.Library{
		{
			Name:    "org.lwjgl:lwjgl:3.3.1:natives-linux",
			Natives: map[string]string{"linux": "natives-linux"},
			Downloads: &descriptor.LibraryDownloads{
				Classifiers: map[string]*descriptor.Artifact{
					"natives-linux": {Path: "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar", SHA1: "bbb", URL: "https://example/natives.jar"},
				},
			},
		},
	}

	nativesDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(nativesDir, "liblwjgl.so"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, natives := PlanLibraries(libs, layout, env, nativesDir)
	if len(entries) != 0 || len(natives) != 0 {
		t.Errorf("expected a non-empty natives dir to skip replanning, got entries=%d natives=%d", len(entries), len(natives))
	}
}

func TestPlanLibraries_RespectsRules(t *testing.T) {
	layout := paths.New(t.TempDir(), "")
	env := rules.Env{OSName: "linux"}

	libs := []descriptor.Library{
		{
			Name:      "windows-only:lib:1.0",
			Downloads: &descriptor.LibraryDownloads{Artifact: &descriptor.Artifact{Path: "w.jar", URL: "https://example/w.jar"}},
			Rules:     []descriptor.Rule{{Action: "allow", OS: &descriptor.RuleOS{Name: "windows"}}},
		},
	}

	entries, _ := PlanLibraries(libs, layout, env, filepath.Join(t.TempDir(), "natives"))
	if len(entries) != 0 {
		t.Errorf("expected the windows-only library to be filtered out on linux, got %d entries", len(entries))
	}
}

func TestPlanAssets(t *testing.T) {
	layout := paths.New(t.TempDir(), "")
	index := descriptor.AssetIndex{
		Objects: map[string]descriptor.AssetObject{
			"icons/icon.png": {Hash: "0123456789abcdef0123456789abcdef01234567", Size: 10},
		},
	}

	entries := PlanAssets(index, layout)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d", len(entries))
	}
	want := "https://resources.download.minecraft.net/01/0123456789abcdef0123456789abcdef01234567"
	if entries[0].URL != want {
		t.Errorf("URL = %q, want %q", entries[0].URL, want)
	}
}

func TestMaterializeLegacyAssets_CopiesBothWhenBothFlagsSet(t *testing.T) {
	layout := paths.New(t.TempDir(), "")
	hash := "0123456789abcdef0123456789abcdef01234567"
	objPath := layout.AssetObject(hash)
	if err := os.MkdirAll(filepath.Dir(objPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(objPath, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	index := descriptor.AssetIndex{
		Virtual:        true,
		MapToResources: true,
		Objects: map[string]descriptor.AssetObject{
			"sound/click.ogg": {Hash: hash},
		},
	}

	if err := MaterializeLegacyAssets(index, layout); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(layout.AssetVirtualLegacy("sound/click.ogg")); err != nil {
		t.Errorf("expected virtual copy: %v", err)
	}
	if _, err := os.Stat(layout.Resource("sound/click.ogg")); err != nil {
		t.Errorf("expected resources copy: %v", err)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	root := t.TempDir()
	layout := paths.New(root, "")

	// The asset is pre-seeded on disk under its real hash, so the repair
	// predicate finds it already satisfied and Run never dials the real
	// resources.download.minecraft.net host the asset plan hardcodes.
	assetHash, err := seedAssetObject(t, layout, []byte("asset-bytes"))
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/client.jar", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("jar-bytes")) })
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(descriptor.AssetIndex{
			Objects: map[string]descriptor.AssetObject{"a.txt": {Hash: assetHash}},
		})
	})
	mux.HandleFunc("/lib.jar", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("lib-bytes")) })

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := fetch.NewClient(nil)

	d := descriptor.Descriptor{
		ID:        "1.20.1",
		Downloads: descriptor.Downloads{Client: &descriptor.Artifact{URL: srv.URL + "/client.jar"}},
		AssetIndex: descriptor.AssetIndexRef{
			ID:  "1.20.1",
			URL: srv.URL + "/index.json",
		},
		Libraries: []descriptor.Library{
			{
				Name: "some:lib:1.0",
				Downloads: &descriptor.LibraryDownloads{
					Artifact: &descriptor.Artifact{Path: "some/lib/1.0/lib-1.0.jar", URL: srv.URL + "/lib.jar"},
				},
			},
		},
	}

	// Pre-seed a java binary so EnsureRuntime skips network (java runtime
	// acquisition is covered by internal/java's own tests).
	binPath := layout.RuntimeJavaBinary(d.JavaComponent())
	if err := os.MkdirAll(filepath.Dir(binPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binPath, []byte("java"), 0o755); err != nil {
		t.Fatal(err)
	}

	env := rules.Env{OSName: "linux"}
	if err := Run(context.Background(), client, layout, d, "1.20.1", env, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(layout.VersionJar("1.20.1")); err != nil {
		t.Errorf("expected client jar: %v", err)
	}
	if _, err := os.Stat(layout.Library("some/lib/1.0/lib-1.0.jar")); err != nil {
		t.Errorf("expected library: %v", err)
	}

	state, err := instance.Load(layout, "1.20.1")
	if err != nil {
		t.Fatal(err)
	}
	if !state.IsFullyDownloaded {
		t.Error("expected label to be marked fully downloaded")
	}
}

// seedAssetObject writes content to a temp file, hashes it, then writes it
// again at the asset-object path its own hash resolves to, returning the
// hash so a test's asset index can reference it as already-satisfied.
func seedAssetObject(t *testing.T, layout paths.Layout, content []byte) (string, error) {
	t.Helper()

	tmp, err := os.CreateTemp(t.TempDir(), "asset-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", err
	}
	tmp.Close()

	hash, err := archiveutil.SHA1File(tmp.Name())
	if err != nil {
		return "", err
	}

	dest := layout.AssetObject(hash)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		return "", err
	}
	return hash, nil
}
