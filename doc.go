// Package protsearch is a Go client for the protein and gene search service.
//
// It runs ranked searches, fetches grouped autocomplete suggestions with
// highlighted matches, and drives an interactive search session with
// debounced suggestions and stale-response protection.
//
//	client, _ := protsearch.New(protsearch.WithBaseURL("http://localhost:8000"))
//	defer client.Close()
//
//	rows, _ := client.Search(ctx, protsearch.Params{Query: "p53", K: 5})
//	for _, r := range rows {
//	    fmt.Println(r.ProteinName, r.Organism, r.UniProtURL)
//	}
//
// Responses can be cached in Redis or Valkey:
//
//	client, _ := protsearch.New(
//	    protsearch.WithBaseURL("http://localhost:8000"),
//	    protsearch.WithRedis("localhost:6379", ""),
//	    protsearch.WithCacheTTL(5*time.Minute),
//	)
package protsearch
