package catalog

import (
    "encoding/json"
    "testing"
)

func testCatalog(t *testing.T) *Catalog {
    t.Helper()
    raw := `{
        "game": "tf2",
        "regions": {
            "sydney": {
                "name": "Sydney",
                "alias": ["syd", "au"],
                "continent": "oceania",
                "tags": ["australia", "oceania"],
                "default": true,
                "tiers": {
                    "free":    {"limit": 2, "provider": "vultr-syd"},
                    "premium": {"limit": 4, "provider": ["vultr-syd", "binarylane-syd"], "allowReservation": true, "earlyStart": 300}
                }
            },
            "bangalore": {
                "name": "Bangalore",
                "alias": ["blr"],
                "continent": "asia",
                "tags": ["india", "asia"],
                "restricted": "T23",
                "tiers": {
                    "free": {"limit": 1, "provider": "digitalocean-blr"}
                }
            },
            "secret": {
                "name": "Secret",
                "hidden": true,
                "tags": ["secret"],
                "tiers": {
                    "staff": {"limit": 1, "provider": "vultr-syd"}
                }
            }
        },
        "variants": {
            "comp":   {"name": "Competitive", "default": true, "map": "cp_process_final"},
            "casual": {"name": "Casual", "providerSize": "large"}
        },
        "roles": {
            "premium_tier_1": "role-t1",
            "premium_tier_2": "role-t2",
            "premium_tier_3": "role-t3"
        },
        "settings": {
            "server_password": "T123",
            "server_rcon_password": true
        }
    }`
    var file File
    if err := json.Unmarshal([]byte(raw), &file); err != nil {
        t.Fatalf("parse fixture: %v", err)
    }
    c, err := New(&file)
    if err != nil {
        t.Fatalf("build catalog: %v", err)
    }
    return c
}

func TestCatalogAliasResolution(t *testing.T) {
    c := testCatalog(t)

    for _, key := range []string{"sydney", "syd", "au", "SYD"} {
        if got := c.ResolveRegion(key); got != "sydney" {
            t.Fatalf("ResolveRegion(%q) = %q, want sydney", key, got)
        }
    }
    if got := c.ResolveRegion("atlantis"); got != "" {
        t.Fatalf("expected unknown region to resolve empty, got %q", got)
    }
    if c.Region("blr") == nil || c.Region("blr").Name != "Bangalore" {
        t.Fatalf("alias lookup should return the canonical entry")
    }
}

func TestCatalogDefaults(t *testing.T) {
    c := testCatalog(t)
    if c.DefaultRegion() != "sydney" {
        t.Fatalf("default region = %q, want sydney", c.DefaultRegion())
    }
    if c.DefaultVariant() != "comp" {
        t.Fatalf("default variant = %q, want comp", c.DefaultVariant())
    }
    if c.Game() != "tf2" {
        t.Fatalf("game = %q, want tf2", c.Game())
    }
}

func TestCatalogTierLookup(t *testing.T) {
    c := testCatalog(t)
    tier := c.Tier("syd", "premium")
    if tier == nil {
        t.Fatalf("expected premium tier in sydney")
    }
    if !tier.AllowReservation || tier.EarlyStart != 300 {
        t.Fatalf("unexpected tier config: %+v", tier)
    }
    if c.Tier("sydney", "bogus") != nil {
        t.Fatalf("unknown tier should be nil")
    }
    if c.Tier("atlantis", "free") != nil {
        t.Fatalf("unknown region should yield nil tier")
    }
}

func TestCatalogTagsAndSearch(t *testing.T) {
    c := testCatalog(t)

    tags := c.AllTags()
    for _, tag := range tags {
        if tag == "secret" {
            t.Fatalf("hidden region tags must not be listed")
        }
    }
    if len(tags) != 4 {
        t.Fatalf("expected 4 distinct visible tags, got %v", tags)
    }

    matches := c.SearchRegions("asia")
    if len(matches) != 1 || matches[0].Value != "bangalore" {
        t.Fatalf("unexpected search result: %v", matches)
    }

    tiers := c.SearchTiers("sydney", "prem")
    if len(tiers) != 1 || tiers[0] != "premium" {
        t.Fatalf("unexpected tier search result: %v", tiers)
    }
}

func TestCatalogRegionAccess(t *testing.T) {
    c := testCatalog(t)

    nobody := Member{ID: "u1"}
    tier2 := Member{ID: "u2", Roles: []string{"role-t2"}}

    if !c.CanUserAccessRegion("sydney", nobody) {
        t.Fatalf("unrestricted region should allow everyone")
    }
    if c.CanUserAccessRegion("bangalore", nobody) {
        t.Fatalf("restricted region should deny a member without the role")
    }
    if !c.CanUserAccessRegion("bangalore", tier2) {
        t.Fatalf("restricted region should allow a tier-2 holder")
    }
    if c.CanUserAccessRegion("atlantis", nobody) {
        t.Fatalf("unknown region should deny")
    }
}

func TestCatalogSettings(t *testing.T) {
    c := testCatalog(t)

    tier1 := Member{ID: "u", Roles: []string{"role-t1"}}
    nobody := Member{ID: "v"}

    if !c.SettingAllowed("server_password", tier1) {
        t.Fatalf("tier-1 holder should pass T123")
    }
    if c.SettingAllowed("server_password", nobody) {
        t.Fatalf("member without roles should fail T123")
    }
    if !c.SettingAllowed("server_rcon_password", nobody) {
        t.Fatalf("boolean true spec should allow everyone")
    }
    if c.SettingAllowed("unconfigured", tier1) {
        t.Fatalf("unconfigured settings should be denied")
    }
}
