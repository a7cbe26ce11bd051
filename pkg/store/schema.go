package store

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const requestSchemaName = "request-form.json"

//go:embed schema/request-form.json
var requestSchemaJSON string

var (
	requestSchemaOnce sync.Once
	requestSchema     *jsonschema.Schema
)

// RequestSchema returns the compiled schema import payloads are checked
// against.
func RequestSchema() *jsonschema.Schema {
	requestSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(requestSchemaName, strings.NewReader(requestSchemaJSON)); err != nil {
			panic("store: add request schema: " + err.Error())
		}
		schema, err := compiler.Compile(requestSchemaName)
		if err != nil {
			panic("store: compile request schema: " + err.Error())
		}
		requestSchema = schema
	})
	return requestSchema
}
