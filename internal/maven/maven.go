// Package maven parses Maven-style artifact coordinates
// (group:name:version[:classifier][@ext]) into repository-relative paths.
package maven

import (
	"strings"

	"github.com/quasarlabs/ignite/internal/errs"
)

// Coordinate is a parsed g:a:v[:c][@ext] artifact reference.
type Coordinate struct {
	Group      string
	Name       string
	Version    string
	Classifier string // empty when absent
	Ext        string // defaults to "jar"
}

// Parse splits a coordinate string of the form "group:name:version" or
// "group:name:version:classifier", with an optional "@ext" suffix on the
// last token. Fewer than three colon-separated tokens is a Parse error.
func Parse(coordinate string) (Coordinate, error) {
	parts := strings.Split(coordinate, ":")
	if len(parts) < 3 {
		return Coordinate{}, errs.Parse("coordinate must have at least group:name:version: " + coordinate)
	}

	group, name, rest := parts[0], parts[1], parts[2:]
	ext := "jar"
	classifier := ""

	// The @ext suffix, when present, is always attached to the very last token.
	last := rest[len(rest)-1]
	if idx := strings.IndexByte(last, '@'); idx >= 0 {
		rest[len(rest)-1] = last[:idx]
		ext = last[idx+1:]
	}

	version := rest[0]
	if len(rest) > 1 {
		classifier = rest[1]
	}

	return Coordinate{Group: group, Name: name, Version: version, Classifier: classifier, Ext: ext}, nil
}

// Path renders the coordinate as the forward-slash repository-relative path
// group-with-dots-as-slashes/name/version/name-version[-classifier].ext.
func (c Coordinate) Path() string {
	groupPath := strings.ReplaceAll(c.Group, ".", "/")
	ext := c.Ext
	if ext == "" {
		ext = "jar"
	}

	filename := c.Name + "-" + c.Version
	if c.Classifier != "" {
		filename += "-" + c.Classifier
	}
	filename += "." + ext

	return strings.Join([]string{groupPath, c.Name, c.Version, filename}, "/")
}

// PathFromArtifact parses coordinate and immediately returns its repository
// path; this is the combined operation used throughout loader merges and the
// Forge processor runner, where the intermediate Coordinate is never needed.
func PathFromArtifact(coordinate string) (string, error) {
	c, err := Parse(coordinate)
	if err != nil {
		return "", err
	}
	return c.Path(), nil
}

// ArtifactName returns the second colon-separated token (the artifact name)
// used for the library-dedup comparisons in loader merges (§4.5 step 2).
func ArtifactName(coordinate string) string {
	parts := strings.SplitN(coordinate, ":", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
