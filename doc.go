// Package finquery provides an embeddable Go client for the finquery
// natural-language stock screener. It compiles free-form questions into
// validated Elasticsearch queries and, when an index is configured,
// executes them.
//
// # Compile and search
//
//	client, _ := finquery.New(ctx,
//	    finquery.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "gpt-4o-mini"),
//	    finquery.WithElasticsearch([]string{"http://localhost:9200"}, "stocks"),
//	)
//	defer client.Close()
//
//	res, _ := client.Search(ctx, "European banks with dividend yield above 3%")
//	for _, hit := range res.Hits {
//	    fmt.Println(hit.Fields["name"], hit.Score)
//	}
//
// # Compile only
//
//	out, _ := client.Transform(ctx, "tech stocks under 15 P/E")
//	if !out.Answered {
//	    fmt.Println(string(out.Query)) // Elasticsearch _search body
//	}
//
// # Direct queries, no model round trip
//
//	hits, _ := client.Query().
//	    Term("currency", "EUR").
//	    Range("div_yield_ttm", finquery.Range{GTE: 0.03}).
//	    Sort("div_yield_ttm", finquery.Desc).
//	    Size(20).
//	    Do(ctx)
package finquery
