package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a relationship edge. The numeric values are persisted and
// exposed to API clients, so they must never be renumbered.
type Kind int

const (
	KindParent           Kind = 1
	KindChild            Kind = 2
	KindSpouse           Kind = 3
	KindSibling          Kind = 4
	KindGrandparent      Kind = 5
	KindGrandchild       Kind = 6
	KindUncle            Kind = 7
	KindAunt             Kind = 8
	KindNephew           Kind = 9
	KindNiece            Kind = 10
	KindCousin           Kind = 11
	KindGreatGrandparent Kind = 12
	KindGreatGrandchild  Kind = 13
	KindStepParent       Kind = 14
	KindStepChild        Kind = 15
	KindStepSibling      Kind = 16
	KindHalfSibling      Kind = 17
	KindOther            Kind = 99
)

var kindNames = map[Kind]string{
	KindParent:           "parent",
	KindChild:            "child",
	KindSpouse:           "spouse",
	KindSibling:          "sibling",
	KindGrandparent:      "grandparent",
	KindGrandchild:       "grandchild",
	KindUncle:            "uncle",
	KindAunt:             "aunt",
	KindNephew:           "nephew",
	KindNiece:            "niece",
	KindCousin:           "cousin",
	KindGreatGrandparent: "great-grandparent",
	KindGreatGrandchild:  "great-grandchild",
	KindStepParent:       "step-parent",
	KindStepChild:        "step-child",
	KindStepSibling:      "step-sibling",
	KindHalfSibling:      "half-sibling",
	KindOther:            "other",
}

// AllKinds returns every relationship kind in ordinal order.
func AllKinds() []Kind {
	return []Kind{
		KindParent, KindChild, KindSpouse, KindSibling,
		KindGrandparent, KindGrandchild,
		KindUncle, KindAunt, KindNephew, KindNiece, KindCousin,
		KindGreatGrandparent, KindGreatGrandchild,
		KindStepParent, KindStepChild, KindStepSibling, KindHalfSibling,
		KindOther,
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// String returns the wire name of the kind (e.g. "great-grandparent").
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Label returns a human-readable label for UIs (e.g. "Great-grandparent").
func (k Kind) Label() string {
	name := k.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseKind converts a kind name or its ordinal to a Kind.
// Names are matched case-insensitively and accept "_" or " " in place of "-".
func ParseKind(s string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)

	if n, err := strconv.Atoi(normalized); err == nil {
		k := Kind(n)
		if k.Valid() {
			return k, nil
		}
		return 0, fmt.Errorf("%w: unknown relationship kind %d", ErrInvalidInput, n)
	}

	for _, k := range AllKinds() {
		if kindNames[k] == normalized {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown relationship kind %q (valid: %s)", ErrInvalidInput, s, strings.Join(KindNames(), ", "))
}

// KindNames lists the wire names of all kinds in ordinal order.
func KindNames() []string {
	kinds := AllKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

// MarshalText encodes the kind by name so JSON and YAML carry readable values.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: unknown relationship kind %d", ErrInvalidInput, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts either a kind name or its ordinal.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// UnmarshalJSON accepts a kind name string or a bare ordinal number.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	return k.UnmarshalText([]byte(s))
}
