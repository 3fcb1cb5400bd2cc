package dareg

// Actor is the identity a search runs as.
type Actor struct {
	ID        string
	Superuser bool
}

// Anonymous sees public record kinds only.
var Anonymous = Actor{}

// User returns a regular actor.
func User(id string) Actor { return Actor{ID: id} }

// Superuser returns an actor that sees every record.
func Superuser(id string) Actor { return Actor{ID: id, Superuser: true} }

// SearchRequest is one cross-entity search.
// All fields are optional; an empty request lists everything visible.
type SearchRequest struct {
	// Query is free text ranked against each model's text fields.
	Query string
	// Filters is a filter document; build one with Where, And, Or and Not.
	Filters Filter
	// Schema is the id of the metadata schema that types metadata.* paths.
	Schema string
	// Model restricts the search to one record kind, e.g. "Dataset".
	Model string
	// Limit defaults to 10 and is capped at 100.
	Limit int
	Offset int
}

// Result is one matched record.
type Result struct {
	ID    string
	Model string
	Text  string
	// Highlights maps each filtered or queried field to the record's value.
	Highlights map[string]any
}

// Page is a window of the merged result list.
type Page struct {
	Count   int
	Results []Result
}

// SchemaFields lists the filterable metadata paths of one schema.
type SchemaFields struct {
	Schema string
	Fields []string
}
