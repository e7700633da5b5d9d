package models

import "testing"

func TestLevelForAction(t *testing.T) {
	cases := map[string]PermissionLevel{
		"read":    LevelRead,
		"write":   LevelWrite,
		"admin":   LevelAdmin,
		"delete":  LevelAdmin,
		"export":  LevelAdmin,
		"":        LevelAdmin,
		"READ":    LevelAdmin, // actions are case-sensitive; anything else is admin
		"read\n":  LevelAdmin,
		"unknown": LevelAdmin,
	}

	for action, want := range cases {
		if got := LevelForAction(action); got != want {
			t.Fatalf("LevelForAction(%q) = %v, want %v", action, got, want)
		}
	}
}

func TestPermissionExpiryBoundary(t *testing.T) {
	expiry := uint64(100)
	perm := Permission{ExpiresAt: &expiry}

	if perm.ExpiredAt(99) {
		t.Fatal("tick 99 should not be expired for expiry 100")
	}
	if !perm.ExpiredAt(100) {
		t.Fatal("the expiry tick itself is already expired")
	}
	if !perm.ExpiredAt(150) {
		t.Fatal("tick 150 should be expired for expiry 100")
	}
}

func TestPermanentGrantNeverExpires(t *testing.T) {
	perm := Permission{}
	if perm.ExpiredAt(1 << 62) {
		t.Fatal("grant without expiry must never expire")
	}
	if !perm.ActiveAt(1 << 62) {
		t.Fatal("non-revoked permanent grant must stay active")
	}
}

func TestRevokedGrantIsInactive(t *testing.T) {
	perm := Permission{IsRevoked: true}
	if perm.ActiveAt(0) {
		t.Fatal("revoked grant must be inactive regardless of expiry")
	}
}

func TestValidSensitivityLevel(t *testing.T) {
	for level, want := range map[int]bool{0: false, 1: true, 4: true, 5: false, -1: false} {
		if got := ValidSensitivityLevel(level); got != want {
			t.Fatalf("ValidSensitivityLevel(%d) = %v, want %v", level, got, want)
		}
	}
}
