package schema

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/domain"
	"github.com/reoring/aspskema/rules"
)

// DefaultMaxArity is used when the document does not set max_arity.
const DefaultMaxArity = 16

// Validate checks doc against the meta-schema and returns the first
// structural error as *aspskema.SchemaError, or nil.
func Validate(doc *Document) error {
	if doc == nil || doc.Root == nil {
		return aspskema.SchemaErrorAt(aspskema.Root(), aspskema.CodeInvalidType, "expected structure")
	}
	v := &validator{classes: map[string]string{}, maxArity: DefaultMaxArity}
	root := aspskema.Root()
	if cfg, ok := doc.Root.Get(ReservedKey); ok {
		if err := v.global(root.Field(ReservedKey), cfg); err != nil {
			return err
		}
	}
	// names first: forward references between facts are allowed
	for _, name := range doc.Root.Keys() {
		if name == ReservedKey {
			continue
		}
		if err := v.declare(root.Field(name), name); err != nil {
			return err
		}
	}
	for _, name := range doc.Root.Keys() {
		if name == ReservedKey {
			continue
		}
		val, _ := doc.Root.Get(name)
		if err := v.fact(root.Field(name), name, val); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	classes  map[string]string // class name -> predicate name
	maxArity int64
}

func fail(p aspskema.PathRef, code, format string, args ...any) error {
	return aspskema.SchemaErrorAt(p, code, fmt.Sprintf(format, args...))
}

func unexpected(p aspskema.PathRef, key, context string) error {
	return aspskema.SchemaErrorAt(p, aspskema.CodeUnknownKey, fmt.Sprintf("unexpected %s in %s", key, context), "key", key, "context", context)
}

func checkKeys(p aspskema.PathRef, m *Map, allowed keySet, context string) error {
	for _, k := range m.Keys() {
		if !allowed.has(k) {
			return unexpected(p, k, context)
		}
	}
	return nil
}

// IsReservedName reports names a document may not declare as facts.
func IsReservedName(name string) bool {
	if strings.HasPrefix(strings.ToLower(name), ReservedKey) {
		return true
	}
	if p, err := domain.NewPredicateName(name); err == nil {
		_, kw := kindAliases[p.ToClass().String()]
		return kw
	}
	return false
}

func (v *validator) declare(p aspskema.PathRef, name string) error {
	pred, err := domain.NewPredicateName(name)
	if err != nil {
		return fail(p, aspskema.CodeInvalidName, "%v", err)
	}
	if IsReservedName(name) {
		return fail(p, aspskema.CodeReserved, "%s is reserved", name)
	}
	v.classes[pred.ToClass().String()] = name
	return nil
}

func (v *validator) global(p aspskema.PathRef, val any) error {
	m, ok := val.(*Map)
	if !ok {
		return fail(p, aspskema.CodeInvalidType, "expected structure")
	}
	if err := checkKeys(p, m, globalKeys, ReservedKey); err != nil {
		return err
	}
	for _, k := range m.Keys() {
		kv, _ := m.Get(k)
		kp := p.Field(k)
		switch k {
		case KeyASP, KeyGo:
			if _, ok := kv.(string); !ok {
				return fail(kp, aspskema.CodeInvalidType, "expected string, but found %s", typeName(kv))
			}
		case KeyWrap:
			list, ok := kv.([]any)
			if !ok {
				return fail(kp, aspskema.CodeInvalidType, "expected list")
			}
			for i, item := range list {
				s, ok := item.(string)
				if !ok {
					return fail(kp.Index(i), aspskema.CodeInvalidType, "expected string, but found %s", typeName(item))
				}
				if _, err := domain.NewPredicateName(s); err != nil {
					return fail(kp.Index(i), aspskema.CodeInvalidName, "%v", err)
				}
				if strings.HasPrefix(strings.ToLower(s), ReservedKey) {
					return fail(kp.Index(i), aspskema.CodeReserved, "%s is reserved", s)
				}
			}
		case KeyMaxArity:
			n, err := intValue(kp, kv)
			if err != nil {
				return err
			}
			if n < 1 || n > 99 {
				return fail(kp, aspskema.CodeTooBig, "max_arity must be in 1..99, but received %d", n)
			}
			v.maxArity = n
		}
	}
	return nil
}

func (v *validator) fact(p aspskema.PathRef, name string, val any) error {
	m, ok := val.(*Map)
	if !ok {
		return fail(p, aspskema.CodeInvalidType, "expected structure for symbol definition")
	}
	fields := newKeySet()
	for _, k := range m.Keys() {
		if k == ReservedKey {
			continue
		}
		if _, err := domain.NewPredicateName(k); err != nil {
			return fail(p.Field(k), aspskema.CodeInvalidName, "%v", err)
		}
		fields[k] = struct{}{}
	}
	if len(fields) == 0 {
		return fail(p, aspskema.CodeRequired, "expected at least one field")
	}
	cfg := factConfig{mode: ModeForwardImplicit, autoBlacklist: true}
	if raw, ok := m.Get(ReservedKey); ok {
		var err error
		if cfg, err = v.factConfig(p.Field(ReservedKey), name, raw, fields); err != nil {
			return err
		}
	}
	for _, k := range m.Keys() {
		if k == ReservedKey {
			continue
		}
		fv, _ := m.Get(k)
		if err := v.field(p.Field(k), fv); err != nil {
			return err
		}
	}
	if cfg.mode == ModeForward && len(fields) != 1 {
		return fail(p.Field(ReservedKey).Field(cfg.modeKey), aspskema.CodeArity, "FORWARD requires exactly one field, found %d", len(fields))
	}
	if cfg.autoBlacklist && int64(len(fields)) > v.maxArity {
		return fail(p, aspskema.CodeArity, "arity %d exceeds max_arity %d", len(fields), v.maxArity)
	}
	return nil
}

type factConfig struct {
	mode          string
	modeKey       string
	autoBlacklist bool
}

func (v *validator) factConfig(p aspskema.PathRef, fact string, val any, fields keySet) (factConfig, error) {
	cfg := factConfig{mode: ModeForwardImplicit, autoBlacklist: true}
	m, ok := val.(*Map)
	if !ok {
		return cfg, fail(p, aspskema.CodeInvalidType, "expected structure")
	}
	if err := checkKeys(p, m, factConfigKeys, "valasp of symbol"); err != nil {
		return cfg, err
	}
	if m.Has(KeyIsPredicate) && m.Has(KeyValidatePredicate) {
		return cfg, fail(p.Field(KeyValidatePredicate), aspskema.CodeDuplicateKey, "%s and %s cannot be given together", KeyIsPredicate, KeyValidatePredicate)
	}
	if m.Has(KeyWithFun) && m.Has(KeyConstructionMode) {
		return cfg, fail(p.Field(KeyConstructionMode), aspskema.CodeDuplicateKey, "%s and %s cannot be given together", KeyWithFun, KeyConstructionMode)
	}
	for _, k := range m.Keys() {
		kv, _ := m.Get(k)
		kp := p.Field(k)
		switch k {
		case KeyIsPredicate, KeyValidatePredicate, KeyAutoBlacklist:
			b, ok := kv.(bool)
			if !ok {
				return cfg, fail(kp, aspskema.CodeInvalidType, "unexpected %v. Expected true or false", kv)
			}
			if k == KeyAutoBlacklist {
				cfg.autoBlacklist = b
			}
		case KeyWithFun, KeyConstructionMode:
			s, _ := kv.(string)
			if !modes.has(s) {
				return cfg, fail(kp, aspskema.CodeInvalidEnum, "unexpected value %v", kv)
			}
			cfg.mode, cfg.modeKey = s, k
		case KeyAfterInit, KeyBeforeGrounding, KeyAfterGrounding:
			if _, ok := kv.(string); !ok {
				return cfg, fail(kp, aspskema.CodeInvalidType, "expected string, but found %s", typeName(kv))
			}
		case KeyHaving:
			if err := v.having(kp, fact, kv, fields); err != nil {
				return cfg, err
			}
		}
	}
	return cfg, nil
}

// ParseHaving returns the comparisons of a having value: a list of
// "a op b" strings or a mapping from op names to [a, b] pairs.
func ParseHaving(val any) ([]rules.Comparison, error) {
	var out []rules.Comparison
	err := walkHaving(aspskema.Root(), val, func(_ aspskema.PathRef, c rules.Comparison) error {
		out = append(out, c)
		return nil
	})
	return out, err
}

func (v *validator) having(p aspskema.PathRef, fact string, val any, fields keySet) error {
	return walkHaving(p, val, func(cp aspskema.PathRef, c rules.Comparison) error {
		for _, name := range []string{c.Left, c.Right} {
			if !fields.has(name) {
				return fail(cp, aspskema.CodeUnresolvedField, "%s is not a field of %s", name, fact)
			}
		}
		return nil
	})
}

func walkHaving(p aspskema.PathRef, val any, visit func(aspskema.PathRef, rules.Comparison) error) error {
	switch t := val.(type) {
	case []any:
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return fail(p.Index(i), aspskema.CodeInvalidType, "expected string, but found %s", typeName(item))
			}
			c, err := rules.ParseComparison(s)
			if err != nil {
				return fail(p.Index(i), aspskema.CodeParseError, "%v", err)
			}
			if err := visit(p.Index(i), c); err != nil {
				return err
			}
		}
	case *Map:
		for _, k := range t.Keys() {
			opText, ok := HavingOp(k)
			if !ok {
				return unexpected(p, k, KeyHaving)
			}
			op, _ := rules.ParseOp(opText)
			raw, _ := t.Get(k)
			pairs, ok := raw.([]any)
			if !ok {
				return fail(p.Field(k), aspskema.CodeInvalidType, "expected list. Obtained %v", raw)
			}
			for i, pr := range pairs {
				pair, ok := pr.([]any)
				if !ok {
					return fail(p.Field(k).Index(i), aspskema.CodeInvalidType, "expected list. Obtained %v", pr)
				}
				if len(pair) != 2 {
					return fail(p.Field(k).Index(i), aspskema.CodeArity, "expected exactly two arguments of the list. Obtained %d", len(pair))
				}
				a, okA := pair[0].(string)
				b, okB := pair[1].(string)
				if !okA || !okB {
					return fail(p.Field(k).Index(i), aspskema.CodeInvalidType, "expected field names")
				}
				if err := visit(p.Field(k).Index(i), rules.Comparison{Left: a, Op: op, Right: b}); err != nil {
					return err
				}
			}
		}
	default:
		return fail(p, aspskema.CodeInvalidType, "expected list")
	}
	return nil
}

func (v *validator) field(p aspskema.PathRef, val any) error {
	switch t := val.(type) {
	case string:
		_, err := v.typeName(p, t)
		return err
	case *Map:
		raw, ok := t.Get(KeyType)
		if !ok {
			return fail(p, aspskema.CodeRequired, "expected keyword type")
		}
		s, ok := raw.(string)
		if !ok {
			return fail(p.Field(KeyType), aspskema.CodeInvalidType, "expected string, but found %s", typeName(raw))
		}
		kind, err := v.typeName(p.Field(KeyType), s)
		if err != nil {
			return err
		}
		switch kind {
		case KindInteger:
			return v.integerField(p, t)
		case KindString, KindAlpha:
			return v.textField(p, t, kind)
		case KindAny:
			return v.countOnly(p, t, "Any type")
		default:
			return v.countOnly(p, t, "user defined symbol")
		}
	}
	return fail(p, aspskema.CodeInvalidType, "expected one of %v or user defined symbol", kindKeywords())
}

// typeName returns the canonical kind, or "" for a reference to a declared fact.
func (v *validator) typeName(p aspskema.PathRef, s string) (string, error) {
	if k, ok := CanonicalKind(s); ok {
		return k, nil
	}
	if _, ok := v.classes[s]; ok {
		return "", nil
	}
	if pred, err := domain.NewPredicateName(s); err == nil {
		if _, ok := v.classes[pred.ToClass().String()]; ok {
			return "", nil
		}
	}
	if _, err := domain.NewSymbolName(s); err != nil {
		return "", fail(p, aspskema.CodeInvalidName, "expected one of %v or user defined symbol: %v", kindKeywords(), err)
	}
	return "", aspskema.SchemaErrorAt(p, aspskema.CodeUndefinedType, fmt.Sprintf("undefined type %s", s), "type", s)
}

func kindKeywords() []string { return newKeySet(KindAlpha, KindAny, KindInteger, KindString).sorted() }

func (v *validator) integerField(p aspskema.PathRef, m *Map) error {
	if err := checkKeys(p, m, integerKeys, "Integer type"); err != nil {
		return err
	}
	if m.Has(KeySumPos) && m.Has("sum+") || m.Has(KeySumNeg) && m.Has("sum-") {
		return fail(p, aspskema.CodeDuplicateKey, "aggregate given twice")
	}
	for _, k := range m.Keys() {
		kv, _ := m.Get(k)
		kp := p.Field(k)
		var err error
		switch CanonicalAggregateKey(k) {
		case KeyMin, KeyMax:
			_, err = intValue(kp, kv)
		case KeyEnum:
			err = enumValues(kp, kv, KindInteger)
		case KeySumPos:
			err = aggregate(kp, kv, 1, k, true)
		case KeySumNeg:
			err = aggregate(kp, kv, -1, k, true)
		case KeyCount:
			err = aggregate(kp, kv, 1, k, false)
		}
		if err != nil {
			return err
		}
	}
	return minLessThanMax(p, m, KeyMin, KeyMax)
}

func (v *validator) textField(p aspskema.PathRef, m *Map, kind string) error {
	if err := checkKeys(p, m, textKeys, kind+" type"); err != nil {
		return err
	}
	if m.Has(KeyMin) && m.Has(KeyMinLen) || m.Has(KeyMax) && m.Has(KeyMaxLen) {
		return fail(p, aspskema.CodeDuplicateKey, "length bound given twice")
	}
	for _, k := range m.Keys() {
		kv, _ := m.Get(k)
		kp := p.Field(k)
		var err error
		switch k {
		case KeyMin, KeyMax, KeyMinLen, KeyMaxLen:
			err = signedInt(kp, kv, 1)
		case KeyEnum:
			err = enumValues(kp, kv, kind)
		case KeyPattern:
			s, ok := kv.(string)
			if !ok {
				err = fail(kp, aspskema.CodeInvalidType, "expected string, but found %s", typeName(kv))
			} else if _, cerr := regexp.Compile(s); cerr != nil {
				err = fail(kp, aspskema.CodePattern, "expected regular expression: %v", cerr)
			}
		case KeyCount:
			err = aggregate(kp, kv, 1, k, false)
		}
		if err != nil {
			return err
		}
	}
	lo, hi := KeyMin, KeyMax
	if m.Has(KeyMinLen) {
		lo = KeyMinLen
	}
	if m.Has(KeyMaxLen) {
		hi = KeyMaxLen
	}
	return minLessThanMax(p, m, lo, hi)
}

func (v *validator) countOnly(p aspskema.PathRef, m *Map, context string) error {
	if err := checkKeys(p, m, anyKeys, context); err != nil {
		return err
	}
	if kv, ok := m.Get(KeyCount); ok {
		return aggregate(p.Field(KeyCount), kv, 1, KeyCount, false)
	}
	return nil
}

// aggregate checks a sum_pos/sum_neg/count block; sign selects the allowed bound sign.
func aggregate(p aspskema.PathRef, val any, sign int, context string, bare bool) error {
	switch t := val.(type) {
	case nil:
		if bare {
			return nil
		}
	case string:
		if bare && t == KindInteger {
			return nil
		}
		if bare {
			return fail(p, aspskema.CodeInvalidType, "expected keyword Integer")
		}
	case *Map:
		if err := checkKeys(p, t, aggregateKeys, context); err != nil {
			return err
		}
		for _, k := range t.Keys() {
			kv, _ := t.Get(k)
			if err := signedInt(p.Field(k), kv, sign); err != nil {
				return err
			}
		}
		return minLessThanMax(p, t, KeyMin, KeyMax)
	}
	return fail(p, aspskema.CodeInvalidType, "expected structure")
}

func minLessThanMax(p aspskema.PathRef, m *Map, lo, hi string) error {
	a, okA := m.Get(lo)
	b, okB := m.Get(hi)
	if !okA || !okB {
		return nil
	}
	x, _ := a.(int64)
	y, _ := b.(int64)
	if x >= y {
		return aspskema.SchemaErrorAt(p, aspskema.CodeMinNotLessMax,
			fmt.Sprintf("%s (%d) is expected to be less than %s (%d)", lo, x, hi, y), "min", x, "max", y)
	}
	return nil
}

func enumValues(p aspskema.PathRef, val any, kind string) error {
	list, ok := val.([]any)
	if !ok {
		return fail(p, aspskema.CodeInvalidType, "expected list")
	}
	if len(list) == 0 {
		return fail(p, aspskema.CodeTooShort, "expected at least one value")
	}
	for i, item := range list {
		ip := p.Index(i)
		switch kind {
		case KindInteger:
			if _, err := intValue(ip, item); err != nil {
				return fail(ip, aspskema.CodeInvalidEnum, "invalid value in enum: %s", message(err))
			}
		case KindString:
			if _, ok := item.(string); !ok {
				return fail(ip, aspskema.CodeInvalidEnum, "invalid value in enum: expected string, but found %s", typeName(item))
			}
		case KindAlpha:
			s, _ := item.(string)
			if _, err := domain.NewPredicateName(s); err != nil {
				return fail(ip, aspskema.CodeInvalidEnum, "invalid value in enum: %v", err)
			}
		}
	}
	return nil
}

// intValue reads a bounded integer.
func intValue(p aspskema.PathRef, val any) (int64, error) {
	switch t := val.(type) {
	case int64:
		if !domain.InRange(t) {
			return 0, aspskema.SchemaErrorAt(p, aspskema.CodeOverflow, fmt.Sprintf("%d is out of range", t), "value", t)
		}
		return t, nil
	case float64:
		if t == math.Trunc(t) {
			return 0, aspskema.SchemaErrorAt(p, aspskema.CodeOverflow, fmt.Sprintf("%.0f is out of range", t), "value", t)
		}
	case string:
		// integers too large for int64 may arrive as text
		_, err := domain.ParseInt(t)
		if errors.Is(err, domain.ErrOverflow) {
			return 0, aspskema.SchemaErrorAt(p, aspskema.CodeOverflow, fmt.Sprintf("%s is out of range", t), "value", t)
		}
		if err == nil {
			return 0, fail(p, aspskema.CodeInvalidType, "expected int, but found string")
		}
	}
	return 0, fail(p, aspskema.CodeInvalidType, "expected int, but found %s", typeName(val))
}

func signedInt(p aspskema.PathRef, val any, sign int) error {
	n, err := intValue(p, val)
	if err != nil {
		return err
	}
	if sign > 0 && n < 0 {
		return fail(p, aspskema.CodeTooSmall, "expected 0 or a positive integer")
	}
	if sign < 0 && n > 0 {
		return fail(p, aspskema.CodeTooBig, "expected 0 or a negative integer")
	}
	return nil
}

func message(err error) string {
	var se *aspskema.SchemaError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case *Map:
		return "structure"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	}
	return fmt.Sprintf("%T", v)
}
