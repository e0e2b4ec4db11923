package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kailas-cloud/protsearch"
)

const noResults = "No results found."

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRows writes rows as an aligned table in service order.
func printRows(w io.Writer, rows []protsearch.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, noResults)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPROTEIN\tORGANISM\tGENES\tSOURCE\tHGNC\tUNIPROT")
	for i, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.ProteinName, r.Organism, r.GeneSymbols, r.Source, r.HGNCID, r.UniProtID)
	}
	_ = tw.Flush()

	for i, r := range rows {
		if len(r.Synonyms) > 0 {
			fmt.Fprintf(w, "%d. also known as: %s\n", i+1, r.SynonymList())
		}
	}
}

// printEntries writes suggestions grouped under their category labels. The
// number before each term is its dropdown index, usable with :pick.
func printEntries(w io.Writer, entries []protsearch.SuggestionEntry, q string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No suggestions.")
		return
	}
	var current protsearch.Category
	for i, e := range entries {
		if e.Category != current {
			current = e.Category
			fmt.Fprintf(w, "%s:\n", current.Label())
		}
		fmt.Fprintf(w, "  %2d  %s\n", i, mark(protsearch.Highlight(e.Item.Term, q)))
	}
}

// mark renders matched segments in brackets.
func mark(segs []protsearch.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Match {
			b.WriteString("[" + s.Text + "]")
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
