package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encoding of trees and selections. The shape follows the editor's JSON value
// format:
//
//	{"object":"document","nodes":[
//	  {"object":"block","type":"paragraph","nodes":[
//	    {"object":"text","text":"hi","marks":[{"type":"bold","start":0,"end":2}]}]}]}
//
// Element properties live under "data"; mark attributes under "data" on the
// mark. Empty "data" and "marks" are omitted. Encode always produces
// canonical JSON, so encoding is deterministic and round-trips losslessly.

// Encode serializes a node (normally a *Document) to canonical JSON.
func Encode(n Node) ([]byte, error) {
	v, err := ToJSONValue(n)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(v)
}

// ToJSONValue converts a node into plain maps and slices.
func ToJSONValue(n Node) (map[string]any, error) {
	switch v := n.(type) {
	case *Document:
		nodes, err := childValues(v.Children)
		if err != nil {
			return nil, err
		}
		return map[string]any{"object": "document", "nodes": nodes}, nil
	case *Block:
		return elementValue("block", v.Kind, v.Props, v.Children)
	case *Inline:
		return elementValue("inline", v.Kind, v.Props, v.Children)
	case *Text:
		out := map[string]any{"object": "text", "text": v.Value}
		if len(v.Marks) > 0 {
			marks := make([]any, len(v.Marks))
			for i, m := range v.Marks {
				mv := map[string]any{"type": m.Type, "start": m.Start, "end": m.End}
				if len(m.Attrs) > 0 {
					mv["data"] = m.Attrs
				}
				marks[i] = mv
			}
			out["marks"] = marks
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("encode: nil node")
	default:
		return nil, fmt.Errorf("encode: unknown node %T", n)
	}
}

func elementValue(object string, kind Kind, props Map, children []Node) (map[string]any, error) {
	nodes, err := childValues(children)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"object": object, "type": string(kind), "nodes": nodes}
	if len(props) > 0 {
		out["data"] = props
	}
	return out, nil
}

func childValues(children []Node) ([]any, error) {
	out := make([]any, len(children))
	for i, c := range children {
		v, err := ToJSONValue(c)
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Decode parses a Document from its JSON encoding.
func Decode(data []byte) (*Document, error) {
	n, err := DecodeNode(data)
	if err != nil {
		return nil, err
	}
	d, ok := n.(*Document)
	if !ok {
		return nil, fmt.Errorf("decode: expected document, got %s", n.Type())
	}
	return d, nil
}

// DecodeNode parses any node from its JSON encoding.
func DecodeNode(data []byte) (Node, error) {
	raw, err := decodeAny(data)
	if err != nil {
		return nil, err
	}
	return FromJSONValue(raw)
}

func decodeAny(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return raw, nil
}

// FromJSONValue builds a node from decoded JSON or YAML data.
func FromJSONValue(v any) (Node, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode: node must be an object, got %T", v)
	}
	object, _ := obj["object"].(string)
	switch object {
	case "document":
		children, err := childNodes(obj)
		if err != nil {
			return nil, err
		}
		return &Document{Children: children}, nil
	case "block", "inline":
		kind, _ := obj["type"].(string)
		if kind == "" {
			return nil, fmt.Errorf("decode: %s without type", object)
		}
		props, err := dataMap(obj["data"])
		if err != nil {
			return nil, fmt.Errorf("decode: %s %q data: %w", object, kind, err)
		}
		children, err := childNodes(obj)
		if err != nil {
			return nil, err
		}
		if object == "block" {
			return &Block{Kind: Kind(kind), Props: props, Children: children}, nil
		}
		return &Inline{Kind: Kind(kind), Props: props, Children: children}, nil
	case "text":
		text, _ := obj["text"].(string)
		marks, err := decodeMarks(obj["marks"])
		if err != nil {
			return nil, err
		}
		return NewText(text, marks...), nil
	default:
		return nil, fmt.Errorf("decode: unknown object %q", object)
	}
}

func childNodes(obj map[string]any) ([]Node, error) {
	raw, ok := obj["nodes"]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("decode: nodes must be a list, got %T", raw)
	}
	out := make([]Node, len(list))
	for i, item := range list {
		n, err := FromJSONValue(item)
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func dataMap(raw any) (Map, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("must be an object, got %T", raw)
	}
	return MapOf(obj)
}

func decodeMarks(raw any) ([]Mark, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("decode: marks must be a list, got %T", raw)
	}
	marks := make([]Mark, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode: marks[%d] must be an object", i)
		}
		typ, _ := obj["type"].(string)
		start, err := intField(obj, "start")
		if err != nil {
			return nil, fmt.Errorf("decode: marks[%d]: %w", i, err)
		}
		end, err := intField(obj, "end")
		if err != nil {
			return nil, fmt.Errorf("decode: marks[%d]: %w", i, err)
		}
		attrs, err := dataMap(obj["data"])
		if err != nil {
			return nil, fmt.Errorf("decode: marks[%d] data: %w", i, err)
		}
		marks = append(marks, Mark{Type: typ, Start: start, End: end, Attrs: attrs})
	}
	return marks, nil
}

func intField(obj map[string]any, key string) (int, error) {
	v, err := ValueOf(obj[key])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	n, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(n), nil
}

// EncodeSelection serializes a selection to canonical JSON.
func EncodeSelection(s Selection) ([]byte, error) {
	return MarshalCanonical(SelectionValue(s))
}

// SelectionValue converts a selection into plain maps and slices.
func SelectionValue(s Selection) map[string]any {
	return map[string]any{
		"anchor": pointValue(s.Anchor),
		"focus":  pointValue(s.Focus),
	}
}

func pointValue(p Point) map[string]any {
	path := make([]any, len(p.Path))
	for i, idx := range p.Path {
		path[i] = idx
	}
	return map[string]any{"path": path, "offset": p.Offset}
}

// DecodeSelection parses a selection from JSON.
func DecodeSelection(data []byte) (Selection, error) {
	raw, err := decodeAny(data)
	if err != nil {
		return Selection{}, err
	}
	return SelectionFromJSONValue(raw)
}

// SelectionFromJSONValue builds a selection from decoded JSON or YAML data.
func SelectionFromJSONValue(v any) (Selection, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Selection{}, fmt.Errorf("decode: selection must be an object, got %T", v)
	}
	anchor, err := PointFromJSONValue(obj["anchor"])
	if err != nil {
		return Selection{}, fmt.Errorf("anchor: %w", err)
	}
	focus, err := PointFromJSONValue(obj["focus"])
	if err != nil {
		return Selection{}, fmt.Errorf("focus: %w", err)
	}
	return Selection{Anchor: anchor, Focus: focus}, nil
}

// PointFromJSONValue builds a point from decoded JSON or YAML data.
func PointFromJSONValue(v any) (Point, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Point{}, fmt.Errorf("decode: point must be an object, got %T", v)
	}
	path, err := PathFromJSONValue(obj["path"])
	if err != nil {
		return Point{}, err
	}
	offset := 0
	if _, ok := obj["offset"]; ok {
		offset, err = intField(obj, "offset")
		if err != nil {
			return Point{}, err
		}
	}
	return Point{Path: path, Offset: offset}, nil
}

// PathFromJSONValue builds a path from a decoded list of integers.
func PathFromJSONValue(v any) (Path, error) {
	if v == nil {
		return Path{}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("decode: path must be a list, got %T", v)
	}
	path := make(Path, len(list))
	for i, item := range list {
		val, err := ValueOf(item)
		if err != nil {
			return nil, fmt.Errorf("path[%d]: %w", i, err)
		}
		n, ok := val.(Int)
		if !ok {
			return nil, fmt.Errorf("path[%d] must be an integer", i)
		}
		path[i] = int(n)
	}
	return path, nil
}
