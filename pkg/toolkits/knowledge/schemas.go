package knowledge

import "encoding/json"

// insertKnowledgeSchema is the JSON Schema for the insertKnowledge tool input.
var insertKnowledgeSchema = json.RawMessage(`{
  "type": "object",
  "required": ["content"],
  "additionalProperties": false,
  "properties": {
    "title": {
      "type": "string",
      "description": "Short document title"
    },
    "content": {
      "type": "string",
      "description": "Document text to embed and store (max 16384 characters)",
      "minLength": 1,
      "maxLength": 16384
    },
    "tags": {
      "type": "array",
      "description": "Optional labels for the document",
      "items": {"type": "string"},
      "maxItems": 10
    }
  }
}`)

// queryKnowledgeSchema is the JSON Schema for the queryKnowledge tool input.
var queryKnowledgeSchema = json.RawMessage(`{
  "type": "object",
  "required": ["query"],
  "additionalProperties": false,
  "properties": {
    "query": {
      "type": "string",
      "description": "Free-text query to match against stored documents"
    },
    "limit": {
      "type": "integer",
      "description": "Maximum number of matches (default 5, max 20)",
      "minimum": 1,
      "maximum": 20
    }
  }
}`)
