// Package suggestion models autocomplete suggestions grouped by category.
package suggestion

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category names a suggestion group.
type Category string

// The fixed suggestion categories, in display order.
const (
	Proteins   Category = "proteins"
	Genes      Category = "genes"
	Organisms  Category = "organisms"
	UniProtIDs Category = "uniprot_ids"
	HGNCIDs    Category = "hgnc_ids"
	Synonyms   Category = "synonyms"
)

var categories = []Category{Proteins, Genes, Organisms, UniProtIDs, HGNCIDs, Synonyms}

// Categories returns the known categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

// Label returns a human-readable category title.
func (c Category) Label() string {
	switch c {
	case Proteins:
		return "Proteins"
	case Genes:
		return "Genes"
	case Organisms:
		return "Organisms"
	case UniProtIDs:
		return "UniProt IDs"
	case HGNCIDs:
		return "HGNC IDs"
	case Synonyms:
		return "Synonyms"
	default:
		return string(c)
	}
}

// Item is one suggestion. The service sends either a bare string or {term, payload}.
type Item struct {
	Term    string          `json:"term"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UnmarshalJSON accepts a JSON string or an object with term and payload.
func (it *Item) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var term string
		if err := json.Unmarshal(data, &term); err != nil {
			return fmt.Errorf("decode suggestion term: %w", err)
		}
		*it = Item{Term: term}
		return nil
	}

	var obj struct {
		Term    string          `json:"term"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode suggestion item: %w", err)
	}
	*it = Item{Term: obj.Term, Payload: obj.Payload}
	return nil
}

// Set groups suggestion items by category. Every category is optional.
type Set map[Category][]Item

// UnmarshalJSON decodes the category mapping, ignoring unknown categories and blank terms.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[Category][]Item
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode suggestion set: %w", err)
	}
	out := make(Set, len(raw))
	for c, items := range raw {
		if !c.Valid() {
			continue
		}
		kept := make([]Item, 0, len(items))
		for _, it := range items {
			if it.Term != "" {
				kept = append(kept, it)
			}
		}
		if len(kept) > 0 {
			out[c] = kept
		}
	}
	*s = out
	return nil
}

// Len returns the total number of items across categories.
func (s Set) Len() int {
	n := 0
	for _, items := range s {
		n += len(items)
	}
	return n
}

// Entry is a suggestion with its category, as shown in the dropdown.
type Entry struct {
	Category Category
	Item     Item
}

// Flatten lists all items in category display order; the index is the dropdown position.
func (s Set) Flatten() []Entry {
	out := make([]Entry, 0, s.Len())
	for _, c := range categories {
		for _, it := range s[c] {
			out = append(out, Entry{Category: c, Item: it})
		}
	}
	return out
}
