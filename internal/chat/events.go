package chat

import "encoding/json"

// inboundEvent is the client-to-server frame. Data stays raw until the
// event-specific handler decodes it.
type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outboundEvent is the server-to-client frame.
type outboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type roomPayload struct {
	Room string `json:"room"`
}

type sendMessagePayload struct {
	Room    string `json:"room"`
	Content string `json:"content"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type messageRefPayload struct {
	MessageID string `json:"message_id"`
}

type reactionPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type editMessagePayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type fileSharePayload struct {
	Room     string `json:"room"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
}

type roomJoinedPayload struct {
	Room    string   `json:"room"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}
