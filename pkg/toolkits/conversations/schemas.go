package conversations

import "encoding/json"

// queryConversationsSchema is the JSON Schema for the queryConversations
// tool input.
var queryConversationsSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "session_id": {
      "type": "string",
      "description": "Restrict results to one session id"
    },
    "from": {
      "type": "string",
      "description": "Earliest started_at, RFC 3339 (e.g. 2024-06-01T00:00:00Z)"
    },
    "to": {
      "type": "string",
      "description": "Latest started_at, RFC 3339"
    },
    "limit": {
      "type": "integer",
      "description": "Maximum number of conversations (default 100, max 200)",
      "minimum": 1,
      "maximum": 200
    }
  }
}`)

// getTranscriptSchema is the JSON Schema for the getTranscript tool input.
var getTranscriptSchema = json.RawMessage(`{
  "type": "object",
  "required": ["session_id"],
  "additionalProperties": false,
  "properties": {
    "session_id": {
      "type": "string",
      "description": "Session id whose transcript to return"
    }
  }
}`)
