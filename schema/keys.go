package schema

import "sort"

// ReservedKey configures the whole document at the root and a single fact
// inside a fact mapping.
const ReservedKey = "valasp"

// Kind keywords as they appear in documents.
const (
	KindInteger = "Integer"
	KindString  = "String"
	KindAlpha   = "Alpha"
	KindAny     = "Any"
)

// kindAliases maps every accepted keyword to its canonical kind.
var kindAliases = map[string]string{
	"Integer": KindInteger,
	"String":  KindString,
	"Text":    KindString,
	"Alpha":   KindAlpha,
	"Atom":    KindAlpha,
	"Any":     KindAny,
}

// CanonicalKind returns the canonical kind of a keyword.
func CanonicalKind(name string) (string, bool) {
	k, ok := kindAliases[name]
	return k, ok
}

// Construction modes (with_fun).
const (
	ModeForwardImplicit = "FORWARD_IMPLICIT"
	ModeForward         = "FORWARD"
	ModeImplicit        = "IMPLICIT"
	ModeTuple           = "TUPLE"
)

// Global configuration keys.
const (
	KeyASP      = "asp"
	KeyGo       = "go"
	KeyWrap     = "wrap"
	KeyMaxArity = "max_arity"
)

// Per-fact configuration keys.
const (
	KeyHaving            = "having"
	KeyIsPredicate       = "is_predicate"
	KeyValidatePredicate = "validate_predicate"
	KeyWithFun           = "with_fun"
	KeyConstructionMode  = "construction_mode"
	KeyAutoBlacklist     = "auto_blacklist"
	KeyAfterInit         = "after_init"
	KeyBeforeGrounding   = "before_grounding"
	KeyAfterGrounding    = "after_grounding"
)

// Field modifier keys.
const (
	KeyType    = "type"
	KeyMin     = "min"
	KeyMax     = "max"
	KeyMinLen  = "min_len"
	KeyMaxLen  = "max_len"
	KeyEnum    = "enum"
	KeyPattern = "pattern"
	KeySumPos  = "sum_pos"
	KeySumNeg  = "sum_neg"
	KeyCount   = "count"
)

// Aggregate key aliases.
var aggregateAliases = map[string]string{"sum+": KeySumPos, "sum-": KeySumNeg}

// CanonicalAggregateKey maps "sum+"/"sum-" to sum_pos/sum_neg.
func CanonicalAggregateKey(key string) string {
	if k, ok := aggregateAliases[key]; ok {
		return k
	}
	return key
}

// having may also be given as a mapping from these names to [a, b] pairs.
var havingOps = map[string]string{"equals": "==", "different": "!=", "lt": "<", "le": "<=", "gt": ">", "ge": ">="}

// HavingOp returns the operator of a named having group.
func HavingOp(name string) (string, bool) {
	op, ok := havingOps[name]
	return op, ok
}

type keySet map[string]struct{}

func newKeySet(keys ...string) keySet {
	s := keySet{}
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s keySet) has(k string) bool { _, ok := s[k]; return ok }

func (s keySet) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	globalKeys     = newKeySet(KeyASP, KeyGo, KeyWrap, KeyMaxArity)
	factConfigKeys = newKeySet(KeyHaving, KeyIsPredicate, KeyValidatePredicate, KeyWithFun, KeyConstructionMode,
		KeyAutoBlacklist, KeyAfterInit, KeyBeforeGrounding, KeyAfterGrounding)
	integerKeys   = newKeySet(KeyType, KeyMin, KeyMax, KeyEnum, KeySumPos, "sum+", KeySumNeg, "sum-", KeyCount)
	textKeys      = newKeySet(KeyType, KeyMin, KeyMax, KeyMinLen, KeyMaxLen, KeyEnum, KeyPattern, KeyCount)
	anyKeys       = newKeySet(KeyType, KeyCount)
	aggregateKeys = newKeySet(KeyMin, KeyMax)
	modes         = newKeySet(ModeForwardImplicit, ModeForward, ModeImplicit, ModeTuple)
)
