package catalog

import (
    "encoding/json"
    "fmt"
    "strings"
)

// Member is the subject access specs are evaluated against.  Roles is
// whatever role identifiers the command surface resolved for the user.
type Member struct {
    ID    string
    Roles []string
}

// HasRole reports whether the member holds the given role identifier.
func (m Member) HasRole(id string) bool {
    for _, r := range m.Roles {
        if r == id {
            return true
        }
    }
    return false
}

type accessKind int

const (
    accessAllow accessKind = iota
    accessDeny
    accessRole
    accessTiers
    accessAnyOf
)

// AccessSpec is the parsed form of the compact access grammar used
// throughout the catalog:
//
//	true / false   – unconditional allow / deny
//	"F"            – unconditional allow
//	"T23"          – premium tier 2 or tier 3 holders
//	"<roleID>"     – holders of a literal role
//	"A|B|..."      – OR-alternation of any of the above
//
// Specs are parsed once at catalog load and evaluated by recursive
// matching, so the grammar is never re-parsed on an access check.
type AccessSpec struct {
    kind  accessKind
    role  string
    tiers [4]bool // index 1..3
    alts  []*AccessSpec
}

// ParseAccessValue parses a JSON access value, which is either a bool or
// a grammar string.
func ParseAccessValue(raw json.RawMessage) (*AccessSpec, error) {
    var b bool
    if err := json.Unmarshal(raw, &b); err == nil {
        if b {
            return &AccessSpec{kind: accessAllow}, nil
        }
        return &AccessSpec{kind: accessDeny}, nil
    }
    var s string
    if err := json.Unmarshal(raw, &s); err == nil {
        return ParseAccessString(s)
    }
    return nil, fmt.Errorf("access spec must be bool or string, got %s", string(raw))
}

// ParseAccessString parses the grammar string form.
func ParseAccessString(s string) (*AccessSpec, error) {
    if s == "" {
        return nil, fmt.Errorf("empty access spec")
    }
    if strings.Contains(s, "|") {
        spec := &AccessSpec{kind: accessAnyOf}
        for _, part := range strings.Split(s, "|") {
            alt, err := ParseAccessString(part)
            if err != nil {
                return nil, err
            }
            spec.alts = append(spec.alts, alt)
        }
        return spec, nil
    }
    if s[0] == 'F' {
        return &AccessSpec{kind: accessAllow}, nil
    }
    if s[0] != 'T' {
        return &AccessSpec{kind: accessRole, role: s}, nil
    }
    spec := &AccessSpec{kind: accessTiers}
    for _, ch := range s[1:] {
        switch ch {
        case '1':
            spec.tiers[1] = true
        case '2':
            spec.tiers[2] = true
        case '3':
            spec.tiers[3] = true
        default:
            return nil, fmt.Errorf("invalid tier digit %q in access spec %q", ch, s)
        }
    }
    return spec, nil
}

// Allows evaluates the parsed rule against a member.  The roles config supplies
// the concrete role identifiers behind the premium tier slots.
func (a *AccessSpec) Allows(member Member, roles Roles) bool {
    switch a.kind {
    case accessAllow:
        return true
    case accessDeny:
        return false
    case accessRole:
        return member.HasRole(a.role)
    case accessTiers:
        if a.tiers[1] && roleMatches(member, roles.PremiumTier1) {
            return true
        }
        if a.tiers[2] && roleMatches(member, roles.PremiumTier2) {
            return true
        }
        if a.tiers[3] && roleMatches(member, roles.PremiumTier3) {
            return true
        }
        return false
    case accessAnyOf:
        for _, alt := range a.alts {
            if alt.Allows(member, roles) {
                return true
            }
        }
        return false
    }
    return false
}

// roleBypass makes a tier slot pass for every member, for deployments
// without the corresponding role configured.
const roleBypass = "<bypass>"

func roleMatches(member Member, role string) bool {
    if role == roleBypass {
        return true
    }
    if role == "" {
        return false
    }
    return member.HasRole(role)
}
