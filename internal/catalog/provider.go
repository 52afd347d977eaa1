package catalog

import (
    "encoding/json"
    "fmt"
)

// DefaultProviderSize is used when a size-keyed provider spec is selected
// without a variant size hint.
const DefaultProviderSize = "medium"

// ProviderSpec is the union-typed provider configuration of a tier.  The
// file may declare a single provider id, an ordered list of ids to try in
// sequence, or a size-keyed set of either.  All three shapes are
// normalized at load time so the engine's retry loop only ever sees an
// ordered candidate list.
type ProviderSpec struct {
    list  []string
    sizes map[string][]string
}

// UnmarshalJSON accepts the three configuration shapes.
func (p *ProviderSpec) UnmarshalJSON(raw []byte) error {
    var single string
    if err := json.Unmarshal(raw, &single); err == nil {
        p.list = []string{single}
        return nil
    }
    var list []string
    if err := json.Unmarshal(raw, &list); err == nil {
        p.list = list
        return nil
    }
    var sized map[string]json.RawMessage
    if err := json.Unmarshal(raw, &sized); err == nil {
        p.sizes = make(map[string][]string, len(sized))
        for size, inner := range sized {
            var s string
            if err := json.Unmarshal(inner, &s); err == nil {
                p.sizes[size] = []string{s}
                continue
            }
            var l []string
            if err := json.Unmarshal(inner, &l); err == nil {
                p.sizes[size] = l
                continue
            }
            return fmt.Errorf("provider size %q must be string or list", size)
        }
        return nil
    }
    return fmt.Errorf("provider must be string, list or size-keyed object")
}

// MarshalJSON writes back the normalized form.
func (p ProviderSpec) MarshalJSON() ([]byte, error) {
    if p.sizes != nil {
        return json.Marshal(p.sizes)
    }
    return json.Marshal(p.list)
}

// Candidates returns the ordered provider list for the given size hint.
// Flat specs ignore the size.  Size-keyed specs fall back to the default
// size when the hint is empty; an unknown size yields no candidates.
func (p ProviderSpec) Candidates(size string) []string {
    if p.sizes == nil {
        return p.list
    }
    if size == "" {
        size = DefaultProviderSize
    }
    return p.sizes[size]
}
