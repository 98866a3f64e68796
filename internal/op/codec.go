package op

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/travisjeffery/writegood/internal/doc"
)

// DecodeBatch parses a list of operations from YAML or JSON (JSON is read
// as YAML flow syntax).
//
//	- {type: insert_text, path: [0, 0], offset: 3, text: "abc"}
//	- {type: set_properties, path: [1], kind: paragraph, props: {depth: null}}
func DecodeBatch(data []byte) ([]Operation, error) {
	var raw []any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	ops := make([]Operation, 0, len(raw))
	for i, item := range raw {
		o, err := FromValue(item)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, o)
	}
	return ops, nil
}

// FromValue builds an operation from decoded YAML or JSON data.
func FromValue(v any) (Operation, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Operation{}, fmt.Errorf("operation must be an object, got %T", v)
	}
	typ, _ := obj["type"].(string)
	o := Operation{Type: Type(typ)}

	var err error
	if o.Path, err = optionalPath(obj, "path"); err != nil {
		return Operation{}, err
	}
	if o.To, err = optionalPath(obj, "to"); err != nil {
		return Operation{}, err
	}
	if o.Offset, err = optionalInt(obj, "offset"); err != nil {
		return Operation{}, err
	}
	if o.Length, err = optionalInt(obj, "length"); err != nil {
		return Operation{}, err
	}
	o.Text, _ = obj["text"].(string)
	if kind, ok := obj["kind"].(string); ok {
		o.Kind = doc.Kind(kind)
	}
	if raw, ok := obj["props"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return Operation{}, fmt.Errorf("props must be an object, got %T", raw)
		}
		props := make(doc.Map, len(m))
		for k, item := range m {
			val, err := doc.ValueOf(item)
			if err != nil {
				return Operation{}, fmt.Errorf("props %q: %w", k, err)
			}
			props[k] = val
		}
		o.Props = props
	}

	switch o.Type {
	case TypeInsertNode:
		if o.Node, err = doc.FromJSONValue(obj["node"]); err != nil {
			return Operation{}, fmt.Errorf("node: %w", err)
		}
	case TypeSetSelection:
		if o.Selection, err = doc.SelectionFromJSONValue(obj["selection"]); err != nil {
			return Operation{}, fmt.Errorf("selection: %w", err)
		}
	case TypeRemoveNode, TypeSetText, TypeInsertText, TypeRemoveText,
		TypeSetProperties, TypeMergeNodes, TypeSplitNode, TypeMoveNode:
	default:
		return Operation{}, fmt.Errorf("unknown operation type %q", typ)
	}
	return o, nil
}

func optionalPath(obj map[string]any, key string) (doc.Path, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	p, err := doc.PathFromJSONValue(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return p, nil
}

func optionalInt(obj map[string]any, key string) (int, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, nil
	}
	v, err := doc.ValueOf(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	n, ok := v.(doc.Int)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(n), nil
}

// ToValue converts an operation into plain maps and slices, the inverse of
// FromValue. Zero-valued fields are omitted.
func ToValue(o Operation) (map[string]any, error) {
	out := map[string]any{"type": string(o.Type)}
	if o.Type != TypeSetSelection {
		out["path"] = pathValue(o.Path)
	}
	if o.To != nil {
		out["to"] = pathValue(o.To)
	}
	switch o.Type {
	case TypeInsertNode:
		node, err := doc.ToJSONValue(o.Node)
		if err != nil {
			return nil, err
		}
		out["node"] = node
	case TypeSetText:
		out["text"] = o.Text
	case TypeInsertText:
		out["offset"] = o.Offset
		out["text"] = o.Text
	case TypeRemoveText:
		out["offset"] = o.Offset
		out["length"] = o.Length
	case TypeSplitNode:
		out["offset"] = o.Offset
	case TypeSetSelection:
		out["selection"] = doc.SelectionValue(o.Selection)
	}
	if o.Kind != "" {
		out["kind"] = string(o.Kind)
	}
	if len(o.Props) > 0 {
		props := make(map[string]any, len(o.Props))
		for k, v := range o.Props {
			props[k] = v
		}
		out["props"] = props
	}
	return out, nil
}

// EncodeBatch serializes operations to canonical JSON.
func EncodeBatch(ops []Operation) ([]byte, error) {
	items := make([]any, len(ops))
	for i, o := range ops {
		v, err := ToValue(o)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		items[i] = v
	}
	return doc.MarshalCanonical(items)
}

func pathValue(p doc.Path) []any {
	out := make([]any, len(p))
	for i, idx := range p {
		out[i] = idx
	}
	return out
}
