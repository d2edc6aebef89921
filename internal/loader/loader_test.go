package loader

import (
	"testing"

	"github.com/quasarlabs/ignite/internal/descriptor"
)

func TestDedupeAndAppend_DropsCollidingVanillaLibrary(t *testing.T) {
	vanilla := []descriptor.Library{
		{Name: "com.google.guava:guava:31.1-jre"},
		{Name: "org.ow2.asm:asm:9.3"},
	}
	loaderLibs := []descriptor.Library{
		{Name: "org.ow2.asm:asm:9.5"},
	}

	merged := dedupeAndAppend(vanilla, loaderLibs)

	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	names := map[string]bool{}
	for _, l := range merged {
		names[l.Name] = true
	}
	if !names["com.google.guava:guava:31.1-jre"] {
		t.Error("expected unrelated vanilla library to survive")
	}
	if names["org.ow2.asm:asm:9.3"] {
		t.Error("expected colliding vanilla asm to be dropped")
	}
	if !names["org.ow2.asm:asm:9.5"] {
		t.Error("expected loader asm to be present")
	}
}

func TestDedupeAndAppend_DropsDuplicateLoaderLibraries(t *testing.T) {
	loaderLibs := []descriptor.Library{
		{Name: "net.fabricmc:fabric-loader:0.15.0"},
		{Name: "net.fabricmc:fabric-loader:0.15.0"},
	}

	merged := dedupeAndAppend(nil, loaderLibs)

	if len(merged) != 1 {
		t.Fatalf("len(merged) = %d, want 1", len(merged))
	}
}

func TestSynthesizeArtifact_FillsDownloadsFromURL(t *testing.T) {
	lib := descriptor.Library{
		Name: "net.fabricmc:fabric-loader:0.15.0",
		URL:  "https://maven.fabricmc.net/",
	}

	got := synthesizeArtifact(lib)

	if got.Downloads == nil || got.Downloads.Artifact == nil {
		t.Fatal("expected a synthesised downloads.artifact")
	}
	want := "https://maven.fabricmc.net/net/fabricmc/fabric-loader/0.15.0/fabric-loader-0.15.0.jar"
	if got.Downloads.Artifact.URL != want {
		t.Errorf("URL = %q, want %q", got.Downloads.Artifact.URL, want)
	}
}

func TestSynthesizeArtifact_LeavesExplicitDownloadsAlone(t *testing.T) {
	lib := descriptor.Library{
		Name: "net.fabricmc:fabric-loader:0.15.0",
		URL:  "https://maven.fabricmc.net/",
		Downloads: &descriptor.LibraryDownloads{
			Artifact: &descriptor.Artifact{URL: "https://custom.example/already-set.jar"},
		},
	}

	got := synthesizeArtifact(lib)

	if got.Downloads.Artifact.URL != "https://custom.example/already-set.jar" {
		t.Errorf("an explicit downloads.artifact was overwritten: %q", got.Downloads.Artifact.URL)
	}
}

func TestMergeArguments_ModernAppendsAfterVanilla(t *testing.T) {
	vanilla := descriptor.Descriptor{
		Arguments: &descriptor.Arguments{
			Game: []descriptor.ArgValue{{Plain: "--username", IsPlain: true}},
		},
	}
	loaderArgs := &descriptor.Arguments{
		Game: []descriptor.ArgValue{{Plain: "--fabric.loader", IsPlain: true}},
	}

	merged, legacy := mergeArguments(vanilla, loaderArgs, "")

	if legacy != "" {
		t.Errorf("legacy = %q, want empty", legacy)
	}
	if len(merged.Game) != 2 || merged.Game[1].Plain != "--fabric.loader" {
		t.Errorf("merged.Game = %+v", merged.Game)
	}
}

func TestMergeArguments_LegacyJoinsWithSpace(t *testing.T) {
	vanilla := descriptor.Descriptor{MinecraftArguments: "--username ${auth_player_name}"}

	_, legacy := mergeArguments(vanilla, nil, "--tweakClass cpw.mods.fml.common.launcher.FMLTweaker")

	want := "--username ${auth_player_name} --tweakClass cpw.mods.fml.common.launcher.FMLTweaker"
	if legacy != want {
		t.Errorf("legacy = %q, want %q", legacy, want)
	}
}
