// Package xliff converts between job item content and the XLIFF 1.2
// interchange format used for the vendor wire payloads.
package xliff

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/nhle/translation-connector/internal/model"
)

// Delimiter separates the segments of a flattened data key inside a
// trans-unit id: "<itemID>][<key>".
const Delimiter = "]["

// Format converts between job item content and an interchange byte stream.
type Format interface {
	// Export renders one job item as an interchange document.
	Export(job *model.Job, item *model.JobItem) ([]byte, error)

	// Import parses an interchange document back into translated texts,
	// keyed by job item id and flattened data key.
	Import(data []byte) (map[string]map[string]string, error)
}

// XLIFF12 implements Format using XLIFF version 1.2.
type XLIFF12 struct{}

var _ Format = (*XLIFF12)(nil)

const xliffNamespace = "urn:oasis:names:tc:xliff:document:1.2"

type document struct {
	XMLName xml.Name `xml:"xliff"`
	Version string   `xml:"version,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Files   []file   `xml:"file"`
}

type file struct {
	Original       string `xml:"original,attr"`
	SourceLanguage string `xml:"source-language,attr"`
	TargetLanguage string `xml:"target-language,attr"`
	Datatype       string `xml:"datatype,attr"`
	Body           body   `xml:"body"`
}

type body struct {
	Units []transUnit `xml:"trans-unit"`
}

type transUnit struct {
	ID      string `xml:"id,attr"`
	Resname string `xml:"resname,attr,omitempty"`
	Source  string `xml:"source"`
	Target  string `xml:"target"`
}

// Export renders one job item as an XLIFF 1.2 document. Each data entry
// becomes a trans-unit whose id carries the item id and flattened key; the
// source text is copied into the target so the vendor tooling sees a
// complete unit.
func (x *XLIFF12) Export(job *model.Job, item *model.JobItem) ([]byte, error) {
	keys := make([]string, 0, len(item.Data))
	for key := range item.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	units := make([]transUnit, 0, len(keys))
	for _, key := range keys {
		units = append(units, transUnit{
			ID:      item.ID + Delimiter + key,
			Resname: key,
			Source:  item.Data[key],
			Target:  item.Data[key],
		})
	}

	doc := document{
		Version: "1.2",
		Xmlns:   xliffNamespace,
		Files: []file{{
			Original:       item.Label,
			SourceLanguage: job.SourceLanguage,
			TargetLanguage: job.TargetLanguage,
			Datatype:       "plaintext",
			Body:           body{Units: units},
		}},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling xliff for item %s: %w", item.ID, err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Import parses an XLIFF document and returns target texts grouped by job
// item id. Trans-units with ids that do not carry the item/key delimiter
// are skipped.
func (x *XLIFF12) Import(data []byte) (map[string]map[string]string, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing xliff: %w", err)
	}

	result := make(map[string]map[string]string)
	for _, f := range doc.Files {
		for _, unit := range f.Body.Units {
			itemID, key, ok := strings.Cut(unit.ID, Delimiter)
			if !ok || itemID == "" || key == "" {
				continue
			}
			if result[itemID] == nil {
				result[itemID] = make(map[string]string)
			}
			result[itemID][key] = unit.Target
		}
	}
	return result, nil
}
