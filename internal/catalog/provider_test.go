package catalog

import (
    "encoding/json"
    "reflect"
    "testing"
)

func parseProvider(t *testing.T, raw string) ProviderSpec {
    t.Helper()
    var spec ProviderSpec
    if err := json.Unmarshal([]byte(raw), &spec); err != nil {
        t.Fatalf("unmarshal %s: %v", raw, err)
    }
    return spec
}

func TestProviderSpecShapes(t *testing.T) {
    t.Run("single provider", func(t *testing.T) {
        spec := parseProvider(t, `"vultr-syd"`)
        if got := spec.Candidates(""); !reflect.DeepEqual(got, []string{"vultr-syd"}) {
            t.Fatalf("candidates = %v", got)
        }
        // flat specs ignore the size hint
        if got := spec.Candidates("large"); !reflect.DeepEqual(got, []string{"vultr-syd"}) {
            t.Fatalf("candidates with size = %v", got)
        }
    })

    t.Run("ordered list", func(t *testing.T) {
        spec := parseProvider(t, `["a", "b", "c"]`)
        if got := spec.Candidates(""); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
            t.Fatalf("candidates = %v", got)
        }
    })

    t.Run("size keyed", func(t *testing.T) {
        spec := parseProvider(t, `{"medium": "m1", "large": ["l1", "l2"]}`)
        if got := spec.Candidates("large"); !reflect.DeepEqual(got, []string{"l1", "l2"}) {
            t.Fatalf("large candidates = %v", got)
        }
        // empty size falls back to the default bucket
        if got := spec.Candidates(""); !reflect.DeepEqual(got, []string{"m1"}) {
            t.Fatalf("default candidates = %v", got)
        }
        if got := spec.Candidates("tiny"); got != nil {
            t.Fatalf("unknown size should yield no candidates, got %v", got)
        }
    })

    t.Run("invalid shapes", func(t *testing.T) {
        var spec ProviderSpec
        if err := json.Unmarshal([]byte(`{"medium": 42}`), &spec); err == nil {
            t.Fatalf("expected error for numeric size entry")
        }
        if err := json.Unmarshal([]byte(`42`), &spec); err == nil {
            t.Fatalf("expected error for numeric provider")
        }
    })
}
