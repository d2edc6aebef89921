// Package launch builds the JVM/game argument list for an installed label
// and spawns the game process (C10), per §4.8.
//
// Grounded on the teacher's launch/launcher.go for the overall shape
// (argument building, os/exec spawn, piped-stdout streaming via a goroutine
// per stream) but driven entirely off the new descriptor/rules/paths/
// identity/launchconfig types instead of the teacher's core.Instance /
// core.VersionDetails / config.Config.
package launch

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/quasarlabs/ignite/internal/descriptor"
	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/events"
	"github.com/quasarlabs/ignite/internal/instance"
	"github.com/quasarlabs/ignite/internal/launchconfig"
	"github.com/quasarlabs/ignite/internal/paths"
	"github.com/quasarlabs/ignite/internal/rules"
	"go.uber.org/zap"
)

const (
	launcherName    = "ignite"
	launcherVersion = "1.0"
)

// Launcher assembles launch arguments for and spawns the game process of an
// already-installed label.
type Launcher struct {
	cfg     launchconfig.LaunchConfig
	d       descriptor.Descriptor
	label   string
	javaBin string
	layout  paths.Layout
	env     rules.Env
	sink    *events.Sink
	log     *zap.Logger
}

// New builds a Launcher for an already-resolved descriptor and a java binary
// path the caller has already ensured exists (via internal/java detection or
// EnsureRuntime).
func New(cfg launchconfig.LaunchConfig, d descriptor.Descriptor, label, javaBin string, sink *events.Sink) *Launcher {
	return &Launcher{
		cfg:     cfg,
		d:       d,
		label:   label,
		javaBin: javaBin,
		layout:  paths.New(cfg.GameRoot, cfg.RuntimeRoot),
		env:     rules.Env{OSName: rules.MojangOSName(runtime.GOOS), OSArch: rules.MojangArch(runtime.GOARCH)},
		sink:    sink,
		log:     cfg.ResolvedLogger(),
	}
}

// ChildHandle wraps a spawned game process, per §4.8 step 7.
type ChildHandle struct {
	cmd       *exec.Cmd
	layout    paths.Layout
	label     string
	startedAt time.Time
	log       *zap.Logger
}

// Wait blocks until the game process exits, records the elapsed session
// playtime against the label's instance state regardless of outcome, and
// returns the process's exit error (nil on a clean exit).
func (h *ChildHandle) Wait() error {
	waitErr := h.cmd.Wait()
	if err := instance.RecordSession(h.layout, h.label, time.Since(h.startedAt)); err != nil {
		h.log.Warn("failed to record play session", zap.String("label", h.label), zap.Error(err))
	}
	return waitErr
}

// Launch spawns the game process: working directory is the game root,
// stdout and stderr are piped and streamed line-by-line to the event sink as
// console events.
func (l *Launcher) Launch(ctx context.Context) (*ChildHandle, error) {
	args := l.buildArguments()

	cmd := exec.CommandContext(ctx, l.javaBin, args...)
	cmd.Dir = l.cfg.GameRoot

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errs.IO(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errs.IO(err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errs.Wrap(errs.KindFail, "spawning game process", err)
	}

	go l.streamConsole(stdout)
	go l.streamConsole(stderr)

	return &ChildHandle{cmd: cmd, layout: l.layout, label: l.label, startedAt: time.Now(), log: l.log}, nil
}

func (l *Launcher) streamConsole(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		l.sink.EmitConsole(scanner.Text())
	}
}

// buildArguments implements §4.8 steps 2-5: normalise legacy arguments into
// the modern shape, build the substitution table, then compose
// memory-flag + jvm args + main class + game args + the caller's extras.
func (l *Launcher) buildArguments() []string {
	jvmArgs, gameArgs := l.normalizedArguments()
	substitutions := l.substitutionTable()

	args := make([]string, 0, len(jvmArgs)+len(gameArgs)+8)
	args = append(args, "-Xmx"+l.memoryFlag())
	args = append(args, l.renderAll(jvmArgs, substitutions)...)
	args = append(args, l.cfg.ExtraJVM...)
	args = append(args, l.d.MainClass)
	args = append(args, l.renderAll(gameArgs, substitutions)...)
	args = append(args, l.cfg.ExtraGame...)

	return args
}

func (l *Launcher) memoryFlag() string {
	if l.cfg.Memory != nil {
		return l.cfg.Memory.Flag()
	}
	return launchconfig.Memory{Amount: 2, Unit: launchconfig.Gigabytes}.Flag()
}

// normalizedArguments implements §4.8 step 2: a legacy descriptor carrying
// only minecraft_arguments is materialised into the modern jvm/game argument
// shape so the rest of the pipeline never has to special-case it.
func (l *Launcher) normalizedArguments() (jvm, game []descriptor.ArgValue) {
	if l.d.HasLegacyArguments() {
		jvm = []descriptor.ArgValue{
			{Plain: "-Djava.library.path=${natives_directory}", IsPlain: true},
			{Plain: "-cp", IsPlain: true},
			{Plain: "${classpath}", IsPlain: true},
		}
		for _, tok := range strings.Fields(l.d.MinecraftArguments) {
			game = append(game, descriptor.ArgValue{Plain: tok, IsPlain: true})
		}
		return jvm, game
	}

	if l.d.Arguments != nil {
		return l.d.Arguments.JVM, l.d.Arguments.Game
	}
	return nil, nil
}

// renderAll filters out rule-disallowed entries, substitutes every ${...}
// placeholder, and flattens multi-value rule-form entries into their
// constituent tokens in order.
func (l *Launcher) renderAll(values []descriptor.ArgValue, substitutions map[string]string) []string {
	var out []string
	for _, v := range values {
		if !v.Allowed(l.env) {
			continue
		}
		for _, tok := range v.Tokens() {
			out = append(out, substitute(tok, substitutions))
		}
	}
	return out
}

// substitute replaces every ${key} occurrence in s using table, leaving
// unknown placeholders untouched (macros this launcher doesn't recognise,
// e.g. a mod loader's own private placeholders, should pass through rather
// than error).
func substitute(s string, table map[string]string) string {
	for key, val := range table {
		s = strings.ReplaceAll(s, "${"+key+"}", val)
	}
	return s
}

// substitutionTable implements §4.8 step 3.
func (l *Launcher) substitutionTable() map[string]string {
	classpath := l.classpath()

	userType := "mojang"
	if !l.cfg.Identity.IsOffline() {
		userType = "msa"
	}

	return map[string]string{
		"auth_player_name":    l.cfg.Identity.Name(),
		"auth_uuid":           l.cfg.Identity.UUID(),
		"auth_xuid":           l.cfg.Identity.XUID(),
		"auth_access_token":   l.cfg.Identity.AccessToken(),
		"user_type":           userType,
		"clientid":            "",
		"user_properties":     "",
		"launcher_name":       launcherName,
		"launcher_version":    launcherVersion,
		"game_directory":      l.cfg.GameRoot,
		"assets_root":         l.layout.AssetsDir(),
		"game_assets":         l.layout.AssetVirtualLegacyDir(),
		"assets_index_name":   l.d.AssetIndex.ID,
		"version_name":        l.label,
		"version_type":        string(l.d.Type),
		"natives_directory":   l.layout.NativesDir(l.d.ID),
		"library_directory":   l.layout.LibrariesDir(),
		"classpath_separator": paths.ClasspathSeparator(),
		"classpath":           classpath,
	}
}

// classpath implements the classpath clause of §4.8 step 3: every
// rules-allowed, non-natives library, followed by the version jar.
// Installer-origin Forge libraries (SkipArgs) are downloaded for the
// processor pipeline's own classpath but never belong on the game's.
func (l *Launcher) classpath() string {
	entries := make([]string, 0, len(l.d.Libraries)+1)
	for _, lib := range l.d.Libraries {
		if lib.HasNatives() || !lib.AllowedOn(l.env) || lib.SkipArgs {
			continue
		}
		if lib.Downloads == nil || lib.Downloads.Artifact == nil {
			continue
		}
		entries = append(entries, l.layout.Library(lib.Downloads.Artifact.Path))
	}
	entries = append(entries, l.layout.VersionJar(l.label))
	return strings.Join(entries, paths.ClasspathSeparator())
}
