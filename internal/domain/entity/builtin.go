package entity

// Built-in entity type names.
const (
	Facility   = "Facility"
	Instrument = "Instrument"
	Project    = "Project"
	Dataset    = "Dataset"
	Experiment = "Experiment"
	Schema     = "Schema"
	Template   = "Template"
)

func timestamps() []Attribute {
	return []Attribute{
		{Name: AttrID, Kind: KindString},
		{Name: AttrCreated, Kind: KindDateTime},
		{Name: AttrModified, Kind: KindDateTime},
	}
}

func withTimestamps(attrs ...Attribute) []Attribute {
	return append(timestamps(), attrs...)
}

// Builtin returns the registry of research-data record kinds.
func Builtin() *Registry {
	r, err := NewRegistry(
		MustType(Facility, withTimestamps(
			Attribute{Name: "name", Kind: KindString},
			Attribute{Name: "abbreviation", Kind: KindString},
			Attribute{Name: "web", Kind: KindString},
			Attribute{Name: "email", Kind: KindString},
		), WithTextFields("name", "abbreviation")),

		MustType(Instrument, withTimestamps(
			Attribute{Name: "facility", Kind: KindReference, Target: Facility},
			Attribute{Name: "name", Kind: KindString},
			Attribute{Name: "method", Kind: KindString},
			Attribute{Name: "support", Kind: KindText},
			Attribute{Name: "contact", Kind: KindString},
		), WithTextFields("name", "method", "support", "contact"), WithParent(Facility, "facility")),

		MustType(Project, withTimestamps(
			Attribute{Name: "facility", Kind: KindReference, Target: Facility},
			Attribute{Name: "name", Kind: KindString},
			Attribute{Name: "description", Kind: KindText},
			Attribute{Name: "default_dataset_schema", Kind: KindReference, Target: Schema},
		), WithTextFields("name", "description"), WithParent(Facility, "facility")),

		MustType(Dataset, withTimestamps(
			Attribute{Name: "project", Kind: KindReference, Target: Project},
			Attribute{Name: "name", Kind: KindString},
			Attribute{Name: "description", Kind: KindText},
			Attribute{Name: "schema", Kind: KindReference, Target: Schema},
			Attribute{Name: "metadata", Kind: KindJSON},
			Attribute{Name: "status", Kind: KindString},
			Attribute{Name: "doi", Kind: KindString},
			Attribute{Name: "reservation_id", Kind: KindString},
		), WithTextFields("name", "description"), WithMetadata("metadata"), WithParent(Project, "project")),

		MustType(Experiment, withTimestamps(
			Attribute{Name: "dataset", Kind: KindReference, Target: Dataset},
			Attribute{Name: "instrument", Kind: KindReference, Target: Instrument},
			Attribute{Name: "name", Kind: KindString},
			Attribute{Name: "status", Kind: KindString},
			Attribute{Name: "note", Kind: KindText},
		), WithTextFields("name", "status", "note"), WithParent(Dataset, "dataset")),

		MustType(Schema, withTimestamps(
			Attribute{Name: "name", Kind: KindString},
			Attribute{Name: "description", Kind: KindText},
			Attribute{Name: "version", Kind: KindInteger},
			Attribute{Name: "schema", Kind: KindJSON},
			Attribute{Name: "uischema", Kind: KindJSON},
		), WithTextFields("name", "description")),

		MustType(Template, withTimestamps(
			Attribute{Name: "name", Kind: KindString},
			Attribute{Name: "json", Kind: KindJSON},
		), Public()),
	)
	if err != nil {
		panic(err)
	}
	return r
}
