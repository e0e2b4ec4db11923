package hit

import (
	"reflect"
	"testing"
)

func TestPresent_EmptyText(t *testing.T) {
	row := Present(Result{})

	if row.ProteinName != "Unknown Protein" {
		t.Errorf("ProteinName = %q, want Unknown Protein", row.ProteinName)
	}
	if row.Organism != "Unknown" {
		t.Errorf("Organism = %q, want Unknown", row.Organism)
	}
	for name, got := range map[string]string{
		"GeneSymbols": row.GeneSymbols,
		"Source":      row.Source,
		"HGNCID":      row.HGNCID,
		"UniProtID":   row.UniProtID,
	} {
		if got != "N/A" {
			t.Errorf("%s = %q, want N/A", name, got)
		}
	}
	if row.UniProtURL != "" || row.HGNCURL != "" {
		t.Errorf("expected no links, got %q / %q", row.UniProtURL, row.HGNCURL)
	}
	if len(row.Synonyms) != 0 {
		t.Errorf("Synonyms = %v, want none", row.Synonyms)
	}
}

func TestPresent_FullRecord(t *testing.T) {
	row := Present(Result{
		Text: "Cellular tumor antigen p53; Tumor suppressor p53 ;Phosphoprotein p53",
		Metadata: map[string]string{
			"Organism":     "Homo sapiens",
			"Gene Symbols": "TP53",
			"Source":       "UniProt",
			"HGNC_ID":      "11998",
			"Reference #":  "P04637",
		},
	})

	want := Row{
		ProteinName: "Cellular tumor antigen p53",
		Organism:    "Homo sapiens",
		GeneSymbols: "TP53",
		Source:      "UniProt",
		HGNCID:      "11998",
		HGNCURL:     "https://www.genenames.org/data/gene-symbol-report/#!/hgnc_id/HGNC:11998",
		UniProtID:   "https://www.uniprot.org/uniprotkb/P04637",
		UniProtURL:  "https://www.uniprot.org/uniprotkb/P04637",
		Synonyms:    []string{"Tumor suppressor p53", "Phosphoprotein p53"},
	}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("Present() =\n%+v\nwant\n%+v", row, want)
	}
	if got := row.SynonymList(); got != "Tumor suppressor p53, Phosphoprotein p53" {
		t.Errorf("SynonymList() = %q", got)
	}
}

func TestPresent_GeneSymbolsFallback(t *testing.T) {
	row := Present(Result{Metadata: map[string]string{"Gene_Symbols": "BRCA1"}})
	if row.GeneSymbols != "BRCA1" {
		t.Errorf("GeneSymbols = %q, want BRCA1", row.GeneSymbols)
	}

	row = Present(Result{Metadata: map[string]string{"Gene Symbols": "A", "Gene_Symbols": "B"}})
	if row.GeneSymbols != "A" {
		t.Errorf("GeneSymbols = %q, want A", row.GeneSymbols)
	}
}

func TestUniProtURL(t *testing.T) {
	tests := []struct {
		ref, want string
	}{
		{"P12345", "https://www.uniprot.org/uniprotkb/P12345"},
		{"https://www.uniprot.org/uniprotkb/Q9Y6K9/entry", "https://www.uniprot.org/uniprotkb/Q9Y6K9/entry"},
		{"A B", "https://www.uniprot.org/uniprotkb/A%20B"},
	}
	for _, tc := range tests {
		if got := UniProtURL(tc.ref); got != tc.want {
			t.Errorf("UniProtURL(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}

	row := Present(Result{Metadata: map[string]string{"Reference #": "P12345"}})
	if row.UniProtURL != "https://www.uniprot.org/uniprotkb/P12345" {
		t.Errorf("row UniProtURL = %q", row.UniProtURL)
	}
}

func TestHGNCURL(t *testing.T) {
	const want = "https://www.genenames.org/data/gene-symbol-report/#!/hgnc_id/HGNC:5"
	if got := HGNCURL("5"); got != want {
		t.Errorf("HGNCURL(5) = %q, want %q", got, want)
	}
	if got := HGNCURL("HGNC:5"); got != want {
		t.Errorf("HGNCURL(HGNC:5) = %q, want %q", got, want)
	}
}

func TestSynonyms(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"a", []string{"a"}},
		{"a; b;;c ", []string{"a", "b", "c"}},
		{" ; x", []string{"x"}},
	}
	for _, tc := range tests {
		if got := Synonyms(tc.text); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Synonyms(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestPresentAll_PreservesOrder(t *testing.T) {
	rows := PresentAll([]Result{{Text: "b"}, {Text: "a"}, {Text: "c"}})
	got := []string{rows[0].ProteinName, rows[1].ProteinName, rows[2].ProteinName}
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("order = %v", got)
	}
}

func TestStateFor(t *testing.T) {
	tests := []struct {
		name    string
		loading bool
		err     string
		n       int
		want    ListState
		message string
	}{
		{"loading wins", true, "boom", 3, StateLoading, "Searching..."},
		{"error over empty", false, "boom", 0, StateError, "An error occurred while searching."},
		{"empty", false, "", 0, StateEmpty, "No results found."},
		{"results", false, "", 2, StateResults, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := StateFor(tc.loading, tc.err, tc.n)
			if got != tc.want {
				t.Errorf("StateFor = %q, want %q", got, tc.want)
			}
			if got.Message() != tc.message {
				t.Errorf("Message = %q, want %q", got.Message(), tc.message)
			}
		})
	}
}
