package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	aspskema "github.com/reoring/aspskema"
)

// DuplicateKeyError reports a duplicate key found in a mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// LoadYAML decodes the first YAML document of r using yaml.Node so that key
// order and duplicate keys are observable. An empty stream yields an empty document.
func LoadYAML(r io.Reader) (*Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{Root: NewMap()}, nil
		}
		return nil, &aspskema.SchemaError{Issue: aspskema.Issue{Path: "/", Code: aspskema.CodeParseError, Message: err.Error(), Cause: err}}
	}
	v, err := nodeToValue(&root)
	if err != nil {
		return nil, err
	}
	return asDocument(v)
}

// LoadYAMLBytes is LoadYAML over a byte slice.
func LoadYAMLBytes(b []byte) (*Document, error) { return LoadYAML(bytes.NewReader(b)) }

func asDocument(v any) (*Document, error) {
	switch t := v.(type) {
	case nil:
		return &Document{Root: NewMap()}, nil
	case *Map:
		return &Document{Root: t}, nil
	}
	return nil, aspskema.SchemaErrorAt(aspskema.Root(), aspskema.CodeInvalidType, "expected structure")
}

func nodeToValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeToValue(n.Content[0])
	case yaml.AliasNode:
		return nodeToValue(n.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			key := k.Value
			if m.Has(key) {
				first := m.Pos(key)
				return nil, &DuplicateKeyError{Key: key, FirstLine: first.Line, FirstCol: first.Col, Line: k.Line, Col: k.Column}
			}
			val, err := nodeToValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.SetAt(key, val, Position{Line: k.Line, Col: k.Column})
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeToValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err == nil {
				return b, nil
			}
			return n.Value, nil
		case "!!int":
			// keep out-of-range literals as text; the validator reports them as overflow
			if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
				return i, nil
			}
			return n.Value, nil
		case "!!float":
			if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
				return f, nil
			}
			return n.Value, nil
		default:
			return n.Value, nil
		}
	}
	return nil, nil
}

// LoadJSON decodes a JSON object preserving key order.
func LoadJSON(r io.Reader) (*Document, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{Root: NewMap()}, nil
		}
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, err
		}
		return nil, &aspskema.SchemaError{Issue: aspskema.Issue{Path: "/", Code: aspskema.CodeParseError, Message: err.Error(), Cause: err}}
	}
	return asDocument(v)
}

// LoadJSONBytes is LoadJSON over a byte slice.
func LoadJSONBytes(b []byte) (*Document, error) { return LoadJSON(bytes.NewReader(b)) }

func decodeJSONValue(dec *j.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			m := NewMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				if m.Has(key) {
					return nil, &DuplicateKeyError{Key: key}
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			_, err := dec.Token() // '}'
			return m, err
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			_, err := dec.Token() // ']'
			return arr, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", v)
	case j.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
		return v.String(), nil
	default:
		return v, nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
