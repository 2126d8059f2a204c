package geo

// Config holds configuration of the geography catalog.
type Config struct {
	// GazetteerPath is a YAML file of reference values per kind.
	GazetteerPath string `mapstructure:"gazetteer_path" default:""`
	// GazetteerFromDB also loads reference values from the database.
	GazetteerFromDB bool `mapstructure:"gazetteer_from_db" default:"false"`
}
