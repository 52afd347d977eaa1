// Package catalog holds the static region/tier/variant configuration the
// booking engine validates requests against.  The catalog is loaded once at
// startup from a JSON file and is read-only afterwards; changing it requires
// a restart.
package catalog

import (
    "encoding/json"
    "fmt"
    "os"
    "sort"
    "strings"
)

// Tier is a capacity/access class within a region.  Limit 0 disables the
// tier.  Provider supports three configuration shapes, normalized at load
// time (see ProviderSpec).
type Tier struct {
    Limit            int          `json:"limit"`
    Provider         ProviderSpec `json:"provider"`
    MinPlayers       int          `json:"minPlayers,omitempty"`
    IdleTime         int          `json:"idleTime,omitempty"`
    WaitTime         int          `json:"waitTime,omitempty"`
    AllowReservation bool         `json:"allowReservation,omitempty"`
    EarlyStart       int          `json:"earlyStart,omitempty"` // seconds before reservedAt provisioning may begin
}

// Region is one bookable location.  Aliases resolve to the same entry via
// the catalog alias table.  Restricted, when present, is an access spec
// gating who may book the region.  Hidden regions are excluded from status
// listings but remain bookable by key.
type Region struct {
    Key        string           `json:"-"`
    Name       string           `json:"name"`
    Alias      []string         `json:"alias,omitempty"`
    Continent  string           `json:"continent,omitempty"`
    Tags       []string         `json:"tags,omitempty"`
    Default    bool             `json:"default,omitempty"`
    Hidden     bool             `json:"hidden,omitempty"`
    Restricted string           `json:"restricted,omitempty"`
    Tiers      map[string]*Tier `json:"tiers"`

    restricted *AccessSpec
}

// Variant is a game-mode preset.  Threshold overrides, when set, take
// precedence over the tier's values when the server request is assembled.
type Variant struct {
    Name         string `json:"name"`
    Default      bool   `json:"default,omitempty"`
    Map          string `json:"map,omitempty"`
    GitRepo      string `json:"gitRepo,omitempty"`
    GitKey       string `json:"gitKey,omitempty"`
    MinPlayers   int    `json:"minPlayers,omitempty"`
    IdleTime     int    `json:"idleTime,omitempty"`
    WaitTime     int    `json:"waitTime,omitempty"`
    ProviderSize string `json:"providerSize,omitempty"`
}

// Roles maps the premium tier slots used by the T-grammar of access specs
// to concrete role identifiers.  The sentinel value "<bypass>" makes a
// tier check pass for everyone.
type Roles struct {
    PremiumTier1 string `json:"premium_tier_1"`
    PremiumTier2 string `json:"premium_tier_2"`
    PremiumTier3 string `json:"premium_tier_3"`
}

// File is the on-disk shape of the catalog.  Settings values are access
// specs (bool or grammar string) gating which users may override the
// corresponding server preference.
type File struct {
    Game     string                     `json:"game"`
    Regions  map[string]*Region         `json:"regions"`
    Variants map[string]*Variant        `json:"variants"`
    Roles    Roles                      `json:"roles"`
    Settings map[string]json.RawMessage `json:"settings,omitempty"`
}

// Catalog is the immutable in-memory form.  All lookups are pure.
type Catalog struct {
    game           string
    regions        map[string]*Region
    variants       map[string]*Variant
    aliases        map[string]string
    defaultRegion  string
    defaultVariant string
    roles          Roles
    settings       map[string]*AccessSpec
}

// Load reads and builds the catalog from a JSON file.
func Load(path string) (*Catalog, error) {
    raw, err := os.ReadFile(path)
    if err != nil {
        return nil, fmt.Errorf("catalog: read %s: %w", path, err)
    }
    var file File
    if err := json.Unmarshal(raw, &file); err != nil {
        return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
    }
    return New(&file)
}

// New builds a catalog from an already-parsed file.  Every alias (and the
// canonical key itself) is entered into the alias table; the last region
// flagged default wins, same for variants.
func New(file *File) (*Catalog, error) {
    c := &Catalog{
        game:     file.Game,
        regions:  file.Regions,
        variants: file.Variants,
        aliases:  make(map[string]string),
        roles:    file.Roles,
        settings: make(map[string]*AccessSpec),
    }
    if c.regions == nil {
        c.regions = map[string]*Region{}
    }
    if c.variants == nil {
        c.variants = map[string]*Variant{}
    }
    for key, region := range c.regions {
        region.Key = key
        if region.Default {
            c.defaultRegion = key
        }
        c.aliases[key] = key
        for _, alias := range region.Alias {
            c.aliases[alias] = key
        }
        if region.Restricted != "" {
            spec, err := ParseAccessString(region.Restricted)
            if err != nil {
                return nil, fmt.Errorf("catalog: region %s restricted: %w", key, err)
            }
            region.restricted = spec
        }
    }
    for key, variant := range c.variants {
        if variant.Default {
            c.defaultVariant = key
        }
        _ = key
    }
    for key, raw := range file.Settings {
        spec, err := ParseAccessValue(raw)
        if err != nil {
            return nil, fmt.Errorf("catalog: setting %s: %w", key, err)
        }
        c.settings[key] = spec
    }
    return c, nil
}

// Game returns the game identifier sent with every server request.
func (c *Catalog) Game() string { return c.game }

// DefaultRegion returns the key of the region flagged default, or "".
func (c *Catalog) DefaultRegion() string { return c.defaultRegion }

// DefaultVariant returns the key of the variant flagged default, or "".
func (c *Catalog) DefaultVariant() string { return c.defaultVariant }

// ResolveRegion maps an alias or canonical key to the canonical region
// key.  Unknown input resolves to "".
func (c *Catalog) ResolveRegion(key string) string {
    return c.aliases[strings.ToLower(key)]
}

// Region fetches a region entry, resolving aliases.  Returns nil when the
// key is unknown.
func (c *Catalog) Region(key string) *Region {
    return c.regions[c.ResolveRegion(key)]
}

// RegionName returns the display name for a region key or alias.
func (c *Catalog) RegionName(key string) string {
    if region := c.Region(key); region != nil {
        return region.Name
    }
    return ""
}

// Tier fetches a tier within a region.  Returns nil when either key is
// unknown.
func (c *Catalog) Tier(region, tier string) *Tier {
    r := c.Region(region)
    if r == nil {
        return nil
    }
    return r.Tiers[tier]
}

// Variant fetches a variant entry, nil when unknown.
func (c *Catalog) Variant(key string) *Variant { return c.variants[key] }

// Variants lists variant display names by key, for selection surfaces.
func (c *Catalog) Variants() map[string]string {
    list := make(map[string]string, len(c.variants))
    for key, v := range c.variants {
        list[key] = v.Name
    }
    return list
}

// RegionKeys returns the canonical region keys in sorted order.
func (c *Catalog) RegionKeys() []string {
    keys := make([]string, 0, len(c.regions))
    for key := range c.regions {
        keys = append(keys, key)
    }
    sort.Strings(keys)
    return keys
}

// AllTags collects the distinct tags of all visible regions, for
// autocomplete-style discovery.  Hidden regions contribute nothing.
func (c *Catalog) AllTags() []string {
    seen := make(map[string]struct{})
    var tags []string
    for _, key := range c.RegionKeys() {
        region := c.regions[key]
        if region.Hidden {
            continue
        }
        for _, tag := range region.Tags {
            if _, ok := seen[tag]; ok {
                continue
            }
            seen[tag] = struct{}{}
            tags = append(tags, tag)
        }
    }
    return tags
}

// RegionMatch is one search result: the display name plus the canonical
// key to book with.
type RegionMatch struct {
    Name  string `json:"name"`
    Value string `json:"value"`
}

// SearchRegions returns the regions whose tags contain the given text.
func (c *Catalog) SearchRegions(text string) []RegionMatch {
    var matches []RegionMatch
    for _, key := range c.RegionKeys() {
        region := c.regions[key]
        for _, tag := range region.Tags {
            if strings.Contains(tag, text) {
                matches = append(matches, RegionMatch{Name: region.Name, Value: key})
                break
            }
        }
    }
    return matches
}

// SearchTiers returns the tier keys of a region containing the given text.
func (c *Catalog) SearchTiers(region, text string) []string {
    r := c.Region(region)
    if r == nil {
        return nil
    }
    keys := make([]string, 0, len(r.Tiers))
    for key := range r.Tiers {
        if strings.Contains(key, text) {
            keys = append(keys, key)
        }
    }
    sort.Strings(keys)
    return keys
}

// CanUserAccessRegion evaluates the region's access restriction against
// the member.  Unrestricted regions allow everyone; unknown regions deny.
func (c *Catalog) CanUserAccessRegion(region string, member Member) bool {
    r := c.Region(region)
    if r == nil {
        return false
    }
    if r.restricted == nil {
        return true
    }
    return r.restricted.Allows(member, c.roles)
}

// SettingAllowed reports whether the member may override the named server
// preference.  Settings without a configured spec are denied.
func (c *Catalog) SettingAllowed(key string, member Member) bool {
    spec, ok := c.settings[key]
    if !ok {
        return false
    }
    return spec.Allows(member, c.roles)
}

// IsUserTier2 reports whether the member holds the premium tier 2 role.
func (c *Catalog) IsUserTier2(member Member) bool {
    return roleMatches(member, c.roles.PremiumTier2)
}

// IsUserTier3 reports whether the member holds the premium tier 3 role.
func (c *Catalog) IsUserTier3(member Member) bool {
    return roleMatches(member, c.roles.PremiumTier3)
}
