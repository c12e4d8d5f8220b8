package catalog

import "encoding/json"

// searchProductsSchema is the JSON Schema for the searchProducts tool input.
var searchProductsSchema = json.RawMessage(`{
  "type": "object",
  "required": ["query"],
  "additionalProperties": false,
  "properties": {
    "query": {
      "type": "string",
      "description": "Free-text search query, e.g. 'gold ring'"
    },
    "limit": {
      "type": "integer",
      "description": "Maximum number of results (default 10, max 50)",
      "minimum": 1,
      "maximum": 50
    }
  }
}`)

// getProductSchema is the JSON Schema for the getProduct tool input.
var getProductSchema = json.RawMessage(`{
  "type": "object",
  "required": ["id"],
  "additionalProperties": false,
  "properties": {
    "id": {
      "type": "string",
      "description": "Catalog product id"
    }
  }
}`)
