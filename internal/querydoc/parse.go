// Package querydoc turns query documents into queryir trees.
//
// A document has the shape:
//
//	{
//	  "valid_region": { "p_min": {"x": .., "y": ..}, "p_max": {"x": .., "y": ..} },
//	  "query": <node>
//	}
//
//	node ::= { "operator_crop": { "region": <region>, "category"?: int,
//	                              "one_of_groups"?: [int...], "proper"?: bool } }
//	       | { "operator_and": [ <node>, ... ] }
//	       | { "operator_or":  [ <node>, ... ] }
//
// Optional crop fields set to null are treated as absent. Region bounds are
// not reordered: an inverted box parses and simply matches nothing.
package querydoc

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/queryir"
)

// Document keys.
const (
	KeyValidRegion = "valid_region"
	KeyQuery       = "query"

	KeyOperatorCrop = "operator_crop"
	KeyOperatorAnd  = "operator_and"
	KeyOperatorOr   = "operator_or"

	KeyRegion      = "region"
	KeyCategory    = "category"
	KeyOneOfGroups = "one_of_groups"
	KeyProper      = "proper"

	KeyPMin = "p_min"
	KeyPMax = "p_max"
	KeyX    = "x"
	KeyY    = "y"
)

var operatorKeys = []string{KeyOperatorCrop, KeyOperatorAnd, KeyOperatorOr}

// ParseTree parses an already-decoded document (maps, slices and scalars as
// produced by encoding/json or yaml.v3).
func ParseTree(tree any) (queryir.Document, error) {
	root, err := asObject(tree, "")
	if err != nil {
		return queryir.Document{}, err
	}

	regionDoc, ok := root[KeyValidRegion]
	if !ok {
		return queryir.Document{}, newParseError(ErrCodeMissingField, "", "document has no %q", KeyValidRegion)
	}
	queryDoc, ok := root[KeyQuery]
	if !ok {
		return queryir.Document{}, newParseError(ErrCodeMissingField, "", "document has no %q", KeyQuery)
	}

	valid, err := ParseRegion(regionDoc, KeyValidRegion)
	if err != nil {
		return queryir.Document{}, err
	}

	node, err := ParseNode(queryDoc, KeyQuery)
	if err != nil {
		return queryir.Document{}, err
	}

	return queryir.Document{ValidRegion: valid, Query: node}, nil
}

// ParseRegion reads p_min.x, p_min.y, p_max.x and p_max.y.
func ParseRegion(v any, path string) (geom.Region, error) {
	obj, err := asObject(v, path)
	if err != nil {
		return geom.Region{}, err
	}

	minX, minY, err := parseCorner(obj, KeyPMin, path)
	if err != nil {
		return geom.Region{}, err
	}
	maxX, maxY, err := parseCorner(obj, KeyPMax, path)
	if err != nil {
		return geom.Region{}, err
	}

	return geom.NewRegion(minX, minY, maxX, maxY), nil
}

func parseCorner(region map[string]any, key, path string) (float64, float64, error) {
	cornerPath := joinPath(path, key)
	raw, ok := region[key]
	if !ok {
		return 0, 0, newParseError(ErrCodeMalformedDocument, cornerPath, "missing region corner")
	}
	corner, err := asObject(raw, cornerPath)
	if err != nil {
		return 0, 0, err
	}

	x, err := requireFloat(corner, KeyX, cornerPath)
	if err != nil {
		return 0, 0, err
	}
	y, err := requireFloat(corner, KeyY, cornerPath)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func requireFloat(obj map[string]any, key, path string) (float64, error) {
	fieldPath := joinPath(path, key)
	raw, ok := obj[key]
	if !ok {
		return 0, newParseError(ErrCodeMalformedDocument, fieldPath, "missing coordinate")
	}
	f, ok := asFloat(raw)
	if !ok {
		return 0, newParseError(ErrCodeMalformedDocument, fieldPath, "coordinate must be a finite number, got %s", describe(raw))
	}
	return f, nil
}

// ParseCrop parses the payload of an operator_crop node.
func ParseCrop(v any, path string) (queryir.CropQuery, error) {
	obj, err := asObject(v, path)
	if err != nil {
		return queryir.CropQuery{}, err
	}

	var q queryir.CropQuery

	rawRegion, ok := obj[KeyRegion]
	if !ok {
		return queryir.CropQuery{}, newParseError(ErrCodeMalformedDocument, joinPath(path, KeyRegion), "crop has no region")
	}
	if q.Region, err = ParseRegion(rawRegion, joinPath(path, KeyRegion)); err != nil {
		return queryir.CropQuery{}, err
	}

	if raw, ok := obj[KeyCategory]; ok && raw != nil {
		category, ok := asInt(raw)
		if !ok || category < math.MinInt32 || category > math.MaxInt32 {
			return queryir.CropQuery{}, newParseError(ErrCodeMalformedDocument, joinPath(path, KeyCategory),
				"category must be a 32-bit integer, got %s", describe(raw))
		}
		c := int(category)
		q.Category = &c
	}

	if raw, ok := obj[KeyOneOfGroups]; ok && raw != nil {
		groups, err := parseGroupList(raw, joinPath(path, KeyOneOfGroups))
		if err != nil {
			return queryir.CropQuery{}, err
		}
		q.OneOfGroups = groups
	}

	if raw, ok := obj[KeyProper]; ok && raw != nil {
		proper, ok := raw.(bool)
		if !ok {
			return queryir.CropQuery{}, newParseError(ErrCodeMalformedDocument, joinPath(path, KeyProper),
				"proper must be a boolean, got %s", describe(raw))
		}
		q.Proper = proper
	}

	return q, nil
}

// parseGroupList returns a non-nil slice, empty for "[]", so that a present
// but empty list stays distinguishable from an absent one.
func parseGroupList(raw any, path string) ([]int64, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, newParseError(ErrCodeMalformedDocument, path, "one_of_groups must be a list, got %s", describe(raw))
	}

	groups := make([]int64, 0, len(items))
	for i, item := range items {
		id, ok := asInt(item)
		if !ok {
			return nil, newParseError(ErrCodeMalformedDocument, fmt.Sprintf("%s[%d]", path, i),
				"group id must be an integer, got %s", describe(item))
		}
		groups = append(groups, id)
	}
	return groups, nil
}

// ParseNode parses one query node and, recursively, its children.
//
// Exactly one operator key must be present. Extra non-operator keys are
// ignored.
func ParseNode(v any, path string) (queryir.Node, error) {
	obj, err := asObject(v, path)
	if err != nil {
		return nil, err
	}

	var present []string
	for _, key := range operatorKeys {
		if _, ok := obj[key]; ok {
			present = append(present, key)
		}
	}

	switch len(present) {
	case 0:
		return nil, newParseError(ErrCodeUnknownOperator, path,
			"node has none of %v (keys: %v)", operatorKeys, sortedKeys(obj))
	case 1:
	default:
		return nil, newParseError(ErrCodeAmbiguousOperator, path, "node has several operators %v", present)
	}

	key := present[0]
	childPath := joinPath(path, key)
	switch key {
	case KeyOperatorCrop:
		q, err := ParseCrop(obj[key], childPath)
		if err != nil {
			return nil, err
		}
		return queryir.NewCrop(q), nil
	case KeyOperatorAnd:
		children, err := parseChildren(obj[key], childPath)
		if err != nil {
			return nil, err
		}
		return queryir.NewAnd(children...), nil
	default:
		children, err := parseChildren(obj[key], childPath)
		if err != nil {
			return nil, err
		}
		return queryir.NewOr(children...), nil
	}
}

func parseChildren(raw any, path string) ([]queryir.Node, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, newParseError(ErrCodeMalformedDocument, path, "operator payload must be a list of nodes, got %s", describe(raw))
	}

	children := make([]queryir.Node, 0, len(items))
	for i, item := range items {
		child, err := ParseNode(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// asObject accepts both map shapes yaml.v3 may produce.
func asObject(v any, path string) (map[string]any, error) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, nil
	case map[any]any:
		out := make(map[string]any, len(obj))
		for k, val := range obj {
			ks, ok := k.(string)
			if !ok {
				return nil, newParseError(ErrCodeMalformedDocument, path, "object key %v is not a string", k)
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, newParseError(ErrCodeMalformedDocument, path, "expected an object, got %s", describe(v))
	}
}

func asFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// asInt accepts integral numbers only. 2 and 2.0 are accepted; 2.5 is not.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		return integral(n)
	default:
		return 0, false
	}
}

func integral(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any, map[any]any:
		return "object"
	case json.Number, float64, float32, int, int64, uint64:
		return "number " + fmt.Sprint(v)
	default:
		return fmt.Sprintf("%T", v)
	}
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
