package xliff

import (
	"sort"
	"strings"

	"github.com/nhle/translation-connector/internal/model"
)

// Translated data moves through the connector as a tree of nested maps and
// lists whose leaves are maps carrying a "#text" entry, matching the
// flattened-key scheme of the interchange ids. These helpers convert
// between the flat and tree shapes and tag leaves with a status.

// Unflatten builds a tree from delimiter-joined keys. Each leaf becomes a
// map with a single "#text" entry.
func Unflatten(flat map[string]string) map[string]interface{} {
	tree := make(map[string]interface{})
	for key, text := range flat {
		segments := strings.Split(key, Delimiter)
		node := tree
		for i, segment := range segments {
			if i == len(segments)-1 {
				node[segment] = map[string]interface{}{"#text": text}
				continue
			}
			child, ok := node[segment].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[segment] = child
			}
			node = child
		}
	}
	return tree
}

// MarkStatus walks a tree of maps, lists, and leaves, tagging every leaf
// (a map with a "#text" entry) with a "#status" entry. The input is
// returned to allow chaining.
func MarkStatus(node interface{}, status model.ItemStatus) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		if _, leaf := v["#text"]; leaf {
			v["#status"] = string(status)
			return v
		}
		for key, child := range v {
			v[key] = MarkStatus(child, status)
		}
		return v
	case []interface{}:
		for i, child := range v {
			v[i] = MarkStatus(child, status)
		}
		return v
	default:
		return v
	}
}

// Flatten collapses a tree back into delimiter-joined keys mapped to their
// leaf "#text" values. Keys come out sorted.
func Flatten(tree map[string]interface{}) map[string]string {
	flat := make(map[string]string)
	flattenInto(flat, "", tree)
	return flat
}

func flattenInto(flat map[string]string, prefix string, node interface{}) {
	m, ok := node.(map[string]interface{})
	if !ok {
		return
	}
	if text, leaf := m["#text"].(string); leaf {
		flat[prefix] = text
		return
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		joined := key
		if prefix != "" {
			joined = prefix + Delimiter + key
		}
		flattenInto(flat, joined, m[key])
	}
}
