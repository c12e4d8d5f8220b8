package flags

import "encoding/json"

// getSystemPromptSchema is the JSON Schema for the getSystemPrompt tool
// input. The tool takes no arguments.
var getSystemPromptSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {}
}`)

// getKVFlagSchema is the JSON Schema for the getKVFlag tool input.
var getKVFlagSchema = json.RawMessage(`{
  "type": "object",
  "required": ["key"],
  "additionalProperties": false,
  "properties": {
    "key": {
      "type": "string",
      "description": "Flag key, e.g. SYSTEM_PROMPT"
    }
  }
}`)

// setKVFlagSchema is the JSON Schema for the setKVFlag tool input.
var setKVFlagSchema = json.RawMessage(`{
  "type": "object",
  "required": ["key", "value"],
  "additionalProperties": false,
  "properties": {
    "key": {
      "type": "string",
      "description": "Flag key to write"
    },
    "value": {
      "type": "string",
      "description": "New flag value (max 32768 characters)",
      "maxLength": 32768
    }
  }
}`)
