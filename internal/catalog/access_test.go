package catalog

import (
    "encoding/json"
    "testing"
)

var testRoles = Roles{
    PremiumTier1: "role-t1",
    PremiumTier2: "role-t2",
    PremiumTier3: "role-t3",
}

func TestParseAccessString(t *testing.T) {
    cases := []struct {
        spec   string
        member Member
        want   bool
    }{
        {"F", Member{}, true},
        {"T23", Member{Roles: []string{"role-t2"}}, true},
        {"T23", Member{Roles: []string{"role-t3"}}, true},
        {"T23", Member{Roles: []string{"role-t1"}}, false},
        {"T123", Member{Roles: []string{"role-t1"}}, true},
        {"some-role-id", Member{Roles: []string{"some-role-id"}}, true},
        {"some-role-id", Member{Roles: []string{"other"}}, false},
        {"T2|mod-role", Member{Roles: []string{"mod-role"}}, true},
        {"T2|mod-role", Member{Roles: []string{"role-t2"}}, true},
        {"T2|mod-role", Member{}, false},
        {"T1|T3", Member{Roles: []string{"role-t3"}}, true},
        {"F|T2", Member{}, true},
    }
    for _, tc := range cases {
        spec, err := ParseAccessString(tc.spec)
        if err != nil {
            t.Fatalf("parse %q: %v", tc.spec, err)
        }
        if got := spec.Allows(tc.member, testRoles); got != tc.want {
            t.Fatalf("spec %q roles %v: got %v, want %v", tc.spec, tc.member.Roles, got, tc.want)
        }
    }
}

func TestParseAccessStringErrors(t *testing.T) {
    for _, spec := range []string{"", "T4", "T2x"} {
        if _, err := ParseAccessString(spec); err == nil {
            t.Fatalf("expected parse error for %q", spec)
        }
    }
}

func TestParseAccessValue(t *testing.T) {
    t.Run("booleans short-circuit", func(t *testing.T) {
        allow, err := ParseAccessValue(json.RawMessage("true"))
        if err != nil {
            t.Fatalf("parse true: %v", err)
        }
        if !allow.Allows(Member{}, testRoles) {
            t.Fatalf("true should allow everyone")
        }
        deny, err := ParseAccessValue(json.RawMessage("false"))
        if err != nil {
            t.Fatalf("parse false: %v", err)
        }
        if deny.Allows(Member{Roles: []string{"role-t3"}}, testRoles) {
            t.Fatalf("false should deny everyone")
        }
    })

    t.Run("rejects other shapes", func(t *testing.T) {
        if _, err := ParseAccessValue(json.RawMessage("42")); err == nil {
            t.Fatalf("expected error for numeric access value")
        }
    })
}

func TestTierBypass(t *testing.T) {
    roles := Roles{PremiumTier1: roleBypass, PremiumTier2: "role-t2"}
    spec, err := ParseAccessString("T1")
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if !spec.Allows(Member{}, roles) {
        t.Fatalf("bypass tier should allow a member without roles")
    }
}
