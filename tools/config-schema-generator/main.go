// Generates schema/session_config.schema.json from the session config
// struct. Run from the repository root after changing the struct:
//
//	go run ./tools/config-schema-generator
package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/knivier/kinera/internal/session"
)

func main() {
	r := &jsonschema.Reflector{
		// Operators get a strict check; unknown keys are typos.
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
	}

	schema := r.Reflect(&session.Config{})
	schema.Title = "Kinera Session Configuration"
	schema.Description = "Schema for session_config.json, the auxiliary-process manifest read at session start."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	outputPath := filepath.Join("schema", "session_config.schema.json")
	if err := os.WriteFile(outputPath, append(schemaBytes, '\n'), 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated schema at %s", outputPath)
}
