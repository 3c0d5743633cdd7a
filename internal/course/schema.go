package course

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const courseSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "modules"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "slug": {"type": "string", "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "modules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "lessons"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "lessons": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "title", "type"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string"},
                "type": {"enum": ["video", "exercise", "note", "notes", "pdf", "certificate", "quiz"]},
                "duration": {"type": "string"},
                "quiz": {
                  "type": "object",
                  "required": ["questions"],
                  "properties": {
                    "pass_percent": {"type": "number", "minimum": 0, "maximum": 100},
                    "questions": {
                      "type": "array",
                      "minItems": 1,
                      "items": {
                        "type": "object",
                        "required": ["id", "options"],
                        "properties": {
                          "id": {"type": "string", "minLength": 1},
                          "prompt": {"type": "string"},
                          "options": {
                            "type": "array",
                            "minItems": 2,
                            "items": {
                              "type": "object",
                              "required": ["id"],
                              "properties": {
                                "id": {"type": "string", "minLength": 1},
                                "text": {"type": "string"},
                                "correct": {"type": "boolean"}
                              }
                            }
                          }
                        }
                      }
                    }
                  }
                }
              },
              "if": {"properties": {"type": {"const": "quiz"}}},
              "then": {"required": ["quiz"]}
            }
          }
        }
      }
    }
  }
}`

var courseSchema = mustCompileSchema(courseSchemaJSON)

func mustCompileSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compiling course schema: %v", err))
	}
	return s
}

// validateDocument checks a decoded course document against the course schema.
func validateDocument(doc any) error {
	result, err := courseSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating course document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("course document invalid: %s", strings.Join(msgs, "; "))
}
