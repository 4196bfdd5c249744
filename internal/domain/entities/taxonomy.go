package entities

// SymmetryClass describes how a kind relates to its reciprocal.
type SymmetryClass int

const (
	// SelfSymmetric kinds are their own reciprocal and are stored as a single row.
	SelfSymmetric SymmetryClass = iota + 1
	// AsymmetricPair kinds have a distinct reciprocal that is materialized as a mirror row.
	AsymmetricPair
)

// String returns the name of the symmetry class.
func (c SymmetryClass) String() string {
	switch c {
	case SelfSymmetric:
		return "self-symmetric"
	case AsymmetricPair:
		return "asymmetric-pair"
	default:
		return "unknown"
	}
}

// TaxonomyEntry describes one relationship kind.
type TaxonomyEntry struct {
	Kind           Kind          `json:"kind"`
	ReciprocalKind Kind          `json:"reciprocal_kind"`
	Symmetry       SymmetryClass `json:"-"`
}

var taxonomy = map[Kind]TaxonomyEntry{
	KindParent:           {KindParent, KindChild, AsymmetricPair},
	KindChild:            {KindChild, KindParent, AsymmetricPair},
	KindSpouse:           {KindSpouse, KindSpouse, SelfSymmetric},
	KindSibling:          {KindSibling, KindSibling, SelfSymmetric},
	KindGrandparent:      {KindGrandparent, KindGrandchild, AsymmetricPair},
	KindGrandchild:       {KindGrandchild, KindGrandparent, AsymmetricPair},
	KindUncle:            {KindUncle, KindNephew, AsymmetricPair},
	KindAunt:             {KindAunt, KindNiece, AsymmetricPair},
	KindNephew:           {KindNephew, KindUncle, AsymmetricPair},
	KindNiece:            {KindNiece, KindAunt, AsymmetricPair},
	KindCousin:           {KindCousin, KindCousin, SelfSymmetric},
	KindGreatGrandparent: {KindGreatGrandparent, KindGreatGrandchild, AsymmetricPair},
	KindGreatGrandchild:  {KindGreatGrandchild, KindGreatGrandparent, AsymmetricPair},
	KindStepParent:       {KindStepParent, KindStepChild, AsymmetricPair},
	KindStepChild:        {KindStepChild, KindStepParent, AsymmetricPair},
	KindStepSibling:      {KindStepSibling, KindStepSibling, SelfSymmetric},
	KindHalfSibling:      {KindHalfSibling, KindHalfSibling, SelfSymmetric},
	KindOther:            {KindOther, KindOther, SelfSymmetric},
}

// Taxonomy returns the entry for k. The second result is false for unknown kinds.
func Taxonomy(k Kind) (TaxonomyEntry, bool) {
	e, ok := taxonomy[k]
	return e, ok
}

// ReciprocalKind returns the kind recorded on the mirror of an edge of kind k.
// Unknown kinds map to themselves.
func ReciprocalKind(k Kind) Kind {
	if e, ok := taxonomy[k]; ok {
		return e.ReciprocalKind
	}
	return k
}

// Symmetry returns the symmetry class of k.
func Symmetry(k Kind) SymmetryClass {
	if e, ok := taxonomy[k]; ok {
		return e.Symmetry
	}
	return SelfSymmetric
}

// IsSelfSymmetric reports whether k is its own reciprocal.
func IsSelfSymmetric(k Kind) bool {
	return Symmetry(k) == SelfSymmetric
}
