package pds

import "github.com/invopop/jsonschema"

// Schema returns JSON schema of the PDS submission
func Schema() *jsonschema.Schema {
	schema := jsonschema.Reflect(&Submission{})
	schema.Title = "CS Form 212 Personal Data Sheet submission"
	schema.Description = "Sections keyed by PDF form field names, table sections hold one object per row"
	schema.Version = "1.0.0"
	return schema
}
