// Package launchconfig defines LaunchConfig (§3): the immutable bundle a
// caller hands to Install/Launch describing what to install and run.
package launchconfig

import (
	"fmt"

	"github.com/quasarlabs/ignite/internal/identity"
	"go.uber.org/zap"
)

// LoaderName identifies a supported mod loader.
type LoaderName string

const (
	Fabric LoaderName = "fabric"
	Quilt  LoaderName = "quilt"
	Forge  LoaderName = "forge"
)

// Loader parameterises a mod loader by its own version string.
type Loader struct {
	Name    LoaderName
	Version string
}

// MemoryUnit is the unit a memory request is expressed in.
type MemoryUnit int

const (
	Megabytes MemoryUnit = iota
	Gigabytes
)

// Memory is an optional -Xmx request.
type Memory struct {
	Amount int
	Unit   MemoryUnit
}

// Flag formats the memory request as a JVM -Xmx argument suffix, e.g. "2G"
// or "512M".
func (m Memory) Flag() string {
	suffix := "M"
	if m.Unit == Gigabytes {
		suffix = "G"
	}
	return fmt.Sprintf("%d%s", m.Amount, suffix)
}

// LaunchConfig is the immutable bundle of everything Install/Launch needs:
// the game root, the vanilla version id, who is playing, and the optional
// knobs that override defaults.
type LaunchConfig struct {
	GameRoot    string
	VersionID   string
	Identity    identity.Identity
	Memory      *Memory
	Label       *string
	Loader      *Loader
	RuntimeRoot string
	ExtraJVM    []string
	ExtraGame   []string

	// Logger receives the structured diagnostics Install and Launch emit:
	// the fetch client logs each completed download at debug level, and
	// ChildHandle.Wait logs a failure to record playtime as a warning. A nil
	// Logger is replaced with a no-op logger, so it is safe to leave unset.
	Logger *zap.Logger
}

// ResolvedLogger returns c.Logger, or a no-op logger if unset.
func (c LaunchConfig) ResolvedLogger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// displayName capitalizes a loader name for use in a default label, e.g.
// "fabric" -> "Fabric". The LoaderName constants themselves stay lowercase
// since they're also used to dispatch to the matching loader adapter.
var displayName = map[LoaderName]string{
	Fabric: "Fabric",
	Quilt:  "Quilt",
	Forge:  "Forge",
}

// ResolvedLabel returns the explicit Label override if set, else the default
// "{Loader-name}-{version}" (or bare version id for vanilla).
func (c LaunchConfig) ResolvedLabel() string {
	if c.Label != nil && *c.Label != "" {
		return *c.Label
	}
	if c.Loader != nil {
		name := displayName[c.Loader.Name]
		if name == "" {
			name = string(c.Loader.Name)
		}
		return fmt.Sprintf("%s-%s", name, c.VersionID)
	}
	return c.VersionID
}
