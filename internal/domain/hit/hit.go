// Package hit formats search hits returned by the search service for display.
package hit

import (
	"net/url"
	"strings"
)

// Metadata keys read from a search hit.
const (
	KeyOrganism        = "Organism"
	KeyGeneSymbols     = "Gene Symbols"
	KeyGeneSymbolsAlt  = "Gene_Symbols"
	KeySource          = "Source"
	KeyHGNCID          = "HGNC_ID"
	KeyUniProtRef      = "Reference #"
	unknownProteinName = "Unknown Protein"
	unknownOrganism    = "Unknown"
	notAvailable       = "N/A"
)

const (
	uniProtBaseURL = "https://www.uniprot.org/uniprotkb/"
	hgncBaseURL    = "https://www.genenames.org/data/gene-symbol-report/#!/hgnc_id/"
	hgncPrefix     = "HGNC:"
)

// Result is a single hit as returned by the search service.
type Result struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Row is a display-ready result row.
type Row struct {
	ProteinName string   `json:"protein_name"`
	Organism    string   `json:"organism"`
	GeneSymbols string   `json:"gene_symbols"`
	Source      string   `json:"source"`
	HGNCID      string   `json:"hgnc_id"`
	HGNCURL     string   `json:"hgnc_url,omitempty"`
	UniProtID   string   `json:"uniprot_id"`
	UniProtURL  string   `json:"uniprot_url,omitempty"`
	Synonyms    []string `json:"synonyms,omitempty"`
}

// SynonymList returns the additional synonyms joined for display.
func (r Row) SynonymList() string {
	return strings.Join(r.Synonyms, ", ")
}

// Present formats a hit. Missing metadata turns into placeholders, never into errors.
func Present(res Result) Row {
	names := Synonyms(res.Text)

	row := Row{
		ProteinName: unknownProteinName,
		Organism:    field(res.Metadata, unknownOrganism, KeyOrganism),
		GeneSymbols: field(res.Metadata, notAvailable, KeyGeneSymbols, KeyGeneSymbolsAlt),
		Source:      field(res.Metadata, notAvailable, KeySource),
		HGNCID:      field(res.Metadata, notAvailable, KeyHGNCID),
		UniProtID:   notAvailable,
	}
	if len(names) > 0 {
		row.ProteinName = names[0]
		row.Synonyms = names[1:]
	}

	if ref := strings.TrimSpace(res.Metadata[KeyUniProtRef]); ref != "" {
		row.UniProtURL = UniProtURL(ref)
		row.UniProtID = row.UniProtURL
	}
	if row.HGNCID != notAvailable {
		row.HGNCURL = HGNCURL(row.HGNCID)
	}
	return row
}

// PresentAll formats hits preserving service order.
func PresentAll(results []Result) []Row {
	rows := make([]Row, len(results))
	for i := range results {
		rows[i] = Present(results[i])
	}
	return rows
}

// Synonyms splits the semicolon-separated name list, dropping blank entries.
func Synonyms(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UniProtURL returns the UniProt entry link for a reference that is either an accession or a URL.
func UniProtURL(ref string) string {
	if strings.Contains(ref, "uniprot.org") {
		return ref
	}
	return uniProtBaseURL + url.PathEscape(ref)
}

// HGNCURL returns the HGNC gene symbol report link for an HGNC ID, with or without the HGNC: prefix.
func HGNCURL(id string) string {
	id = strings.TrimPrefix(strings.TrimSpace(id), hgncPrefix)
	return hgncBaseURL + hgncPrefix + id
}

// field returns the first non-blank value among keys, or def.
func field(md map[string]string, def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(md[k]); v != "" {
			return v
		}
	}
	return def
}
