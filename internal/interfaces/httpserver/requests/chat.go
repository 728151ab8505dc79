package requests

// ChatRequest is the JSON body of a chat turn without attachments. Multipart
// requests carry the same fields as form values plus a "files" part.
type ChatRequest struct {
	ConversationID *string `json:"conversation_id"`
	Message        string  `json:"message" binding:"required"`
}
