package identity

import "testing"

func TestNewOffline_GeneratesStableUUIDFromName(t *testing.T) {
	a := NewOffline("Steve", "")
	b := NewOffline("Steve", "")
	if a.UUID() == "" {
		t.Fatal("expected a generated UUID")
	}
	if a.UUID() != b.UUID() {
		t.Errorf("expected the same name to always generate the same offline UUID, got %q and %q", a.UUID(), b.UUID())
	}
	if !a.IsOffline() {
		t.Error("expected IsOffline to be true")
	}
}

func TestNewOffline_DifferentNamesDifferentUUIDs(t *testing.T) {
	a := NewOffline("Steve", "")
	b := NewOffline("Alex", "")
	if a.UUID() == b.UUID() {
		t.Error("expected different names to generate different offline UUIDs")
	}
}

func TestNewOffline_ExplicitUUIDPreserved(t *testing.T) {
	id := NewOffline("Steve", "11111111-1111-1111-1111-111111111111")
	if id.UUID() != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("explicit uuid not preserved: %q", id.UUID())
	}
}

func TestNewAuthenticated(t *testing.T) {
	id := NewAuthenticated("Steve", "uuid", "xuid", "token")
	if id.IsOffline() {
		t.Error("expected IsOffline to be false")
	}
	if id.Kind() != Authenticated {
		t.Errorf("Kind = %v, want Authenticated", id.Kind())
	}
	if id.XUID() != "xuid" || id.AccessToken() != "token" {
		t.Errorf("unexpected fields: %+v", id)
	}
}
