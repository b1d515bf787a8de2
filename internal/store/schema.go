package store

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type schemaName string

const (
	schemaIdeas         schemaName = "ideas"
	schemaVotes         schemaName = "votes"
	schemaNotifications schemaName = "notifications"
)

const schemaBaseURL = "https://idea-board.local/schemas/"

var (
	schemasOnce sync.Once
	schemas     map[schemaName]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	schemas = make(map[schemaName]*jsonschema.Schema, 3)
	for _, name := range []schemaName{schemaIdeas, schemaVotes, schemaNotifications} {
		file := fmt.Sprintf("schemas/%s.schema.json", name)
		source, err := schemaFS.ReadFile(file)
		if err != nil {
			schemasErr = fmt.Errorf("read %s: %w", file, err)
			return
		}
		compiled, err := jsonschema.CompileString(schemaBaseURL+string(name)+".schema.json", string(source))
		if err != nil {
			schemasErr = fmt.Errorf("compile %s: %w", file, err)
			return
		}
		schemas[name] = compiled
	}
}

func validateBlob(name schemaName, raw string) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}

	var document any
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return fmt.Errorf("parse %s blob: %w", name, err)
	}
	if err := schemas[name].Validate(document); err != nil {
		return fmt.Errorf("%s blob does not match schema: %w", name, err)
	}
	return nil
}
