package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	processSchema  = mustCompile("process.json", buildProcessSchema())
	addCardsSchema = mustCompile("add_cards.json", buildAddCardsSchema())

	processTextSchema   = mustCompile("process_text.json", requireArray("status", cardResultSchema()))
	extractSchema       = mustCompile("extract.json", requireArray("pairs", pairSchema()))
	processImagesSchema = mustCompile("process_images.json", requireArray("results", imageResultSchema()))
)

func cardResultSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"Front", "Back", "Status"},
		"properties": map[string]any{
			"Front":  map[string]any{"type": "string"},
			"Back":   map[string]any{"type": "string"},
			"Status": map[string]any{"type": []string{"string", "boolean"}},
			"Error":  map[string]any{"type": "string"},
		},
	}
}

func pairSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"Front", "Back"},
		"properties": map[string]any{
			"Front": map[string]any{"type": "string"},
			"Back":  map[string]any{"type": "string"},
		},
	}
}

func imageResultSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"Image", "Pairs"},
		"properties": map[string]any{
			"Image":  map[string]any{"type": "string"},
			"Detail": map[string]any{"type": "string"},
			"Pairs":  map[string]any{"type": "array", "items": cardResultSchema()},
		},
	}
}

// requireArray describes an object whose key must hold an array of items
func requireArray(key string, items map[string]any) map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{key},
		"properties": map[string]any{
			key: map[string]any{"type": "array", "items": items},
		},
	}
}

// buildProcessSchema accepts {cards}, legacy {status} or {pairs}
func buildProcessSchema() map[string]any {
	cards := map[string]any{"type": "array", "items": cardResultSchema()}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cards":  cards,
			"status": cards,
			"pairs":  map[string]any{"type": "array", "items": pairSchema()},
		},
		"anyOf": []any{
			map[string]any{"required": []string{"cards"}},
			map[string]any{"required": []string{"status"}},
			map[string]any{"required": []string{"pairs"}},
		},
	}
}

func buildAddCardsSchema() map[string]any {
	cards := map[string]any{"type": "array", "items": cardResultSchema()}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cards":  cards,
			"status": cards,
		},
		"anyOf": []any{
			map[string]any{"required": []string{"cards"}},
			map[string]any{"required": []string{"status"}},
		},
	}
}

func mustCompile(name string, schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// validate checks a response body against schema
func validate(schema *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
