package chat

import "encoding/json"

// aiChatSchema is the JSON Schema for the aiChat tool input.
var aiChatSchema = json.RawMessage(`{
  "type": "object",
  "required": ["message"],
  "additionalProperties": false,
  "properties": {
    "message": {
      "type": "string",
      "description": "User message for this turn"
    },
    "session_id": {
      "type": "string",
      "description": "Session to continue; omit to start a new one"
    }
  }
}`)
