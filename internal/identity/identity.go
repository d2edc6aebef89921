// Package identity implements the player identity data model (§3): who is
// launching the game. The launch configuration lives in launchconfig.
//
// Grounded on the teacher's internal/core/account.go for the
// offline-vs-authenticated account shape, generalised into the closed tagged
// union the merged descriptor's ${auth_*} placeholders are substituted from.
package identity

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// Kind distinguishes the two identity variants.
type Kind int

const (
	Offline Kind = iota
	Authenticated
)

// Identity is an immutable tagged value: either an offline profile (a name
// and an auto-generated-if-absent UUID) or a fully authenticated session.
type Identity struct {
	kind Kind

	name string
	uuid string

	xuid        string
	accessToken string
}

// NewOffline builds an offline Identity. If uuid is empty, one is generated
// deterministically from the name so the same name always resolves to the
// same offline UUID across runs.
func NewOffline(name, uuid_ string) Identity {
	if uuid_ == "" {
		uuid_ = offlineUUID(name)
	}
	return Identity{kind: Offline, name: name, uuid: uuid_}
}

// NewAuthenticated builds an authenticated Identity from a completed login.
func NewAuthenticated(name, uuid_, xuid, accessToken string) Identity {
	return Identity{kind: Authenticated, name: name, uuid: uuid_, xuid: xuid, accessToken: accessToken}
}

func (id Identity) Kind() Kind { return id.kind }

func (id Identity) Name() string { return id.name }

func (id Identity) UUID() string { return id.uuid }

// XUID is empty for offline identities.
func (id Identity) XUID() string { return id.xuid }

// AccessToken is empty for offline identities.
func (id Identity) AccessToken() string { return id.accessToken }

func (id Identity) IsOffline() bool { return id.kind == Offline }

// offlineUUID derives a stable UUID from a player name the same way the
// vanilla client does for offline play: an MD5-based version-3 UUID of
// "OfflinePlayer:{name}".
func offlineUUID(name string) string {
	h := md5.Sum([]byte("OfflinePlayer:" + name))
	h[6] = (h[6] & 0x0f) | 0x30
	h[8] = (h[8] & 0x3f) | 0x80
	return uuid.UUID(h).String()
}
