package catalog

const (
	TextInputFormat               = "org.apache.hadoop.mapred.TextInputFormat"
	HiveIgnoreKeyTextOutputFormat = "org.apache.hadoop.hive.ql.io.HiveIgnoreKeyTextOutputFormat"
	OpenXJSONSerDe                = "org.openx.data.jsonserde.JsonSerDe"

	externalTableType = "EXTERNAL_TABLE"
)

type Column struct {
	Name string
	Type string
}

// Table describes an external table over line-delimited JSON files.
type Table struct {
	Name string

	// Location is an s3:// uri of the directory holding the data files.
	Location string
	Columns  []Column
}

// PlayerColumns mirrors the player record fields queried from the lake.
// The fetched data is not checked against it: a field missing in the
// records reads as NULL.
var PlayerColumns = []Column{
	{Name: "playerid", Type: "int"},
	{Name: "firstname", Type: "string"},
	{Name: "lastname", Type: "string"},
	{Name: "team", Type: "string"},
	{Name: "position", Type: "string"},
	{Name: "points", Type: "int"},
}
