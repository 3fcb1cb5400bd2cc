// Package dareg embeds the dareg research-data search engine in a Go program.
//
// The client opens the same stores as the dareg server (Valkey, Redis,
// PostgreSQL or SQLite) and runs permission-scoped searches in process:
//
//	client, _ := dareg.New(ctx, dareg.WithSQLite("registry.db"), dareg.WithAutoMigrate())
//	defer client.Close()
//
//	page, _ := client.Search(ctx, dareg.User("alice"), dareg.SearchRequest{
//	    Query:  "lysozyme",
//	    Model:  "Dataset",
//	    Schema: "3",
//	    Filters: dareg.And(
//	        dareg.Where("status").Eq("published"),
//	        dareg.Where("metadata.sample.ph").Gte(6.5),
//	    ),
//	})
//	for _, r := range page.Results {
//	    fmt.Println(r.Model, r.ID, r.Text)
//	}
package dareg
