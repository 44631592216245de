package backend

// envelope is the common part of every backend response. The backend
// signals business failures with HTTP 200 and a negative status, so
// callers must branch on Status, never on the HTTP code alone.
type envelope struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

type otpResponse struct {
	envelope
	Pin string `json:"pin"`
}

type accountResponse struct {
	envelope
	Account wireAccount `json:"data"`
}

type wireAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar"`
	Approved bool   `json:"is_approved"`
}

type contactsResponse struct {
	envelope
	Contacts []wireContact `json:"data"`
}

type wireContact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

type groupsResponse struct {
	envelope
	Groups []wireGroup `json:"data"`
}

type groupResponse struct {
	envelope
	Group wireGroup `json:"data"`
}

type wireGroup struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Avatar  string   `json:"avatar"`
}

type sendMessageRequest struct {
	ClientID  string `json:"client_id"`
	ChannelID string `json:"channel_id"`
	SenderID  string `json:"sender_id"`
	Body      string `json:"message"`
	Type      string `json:"type"`
	FileURI   string `json:"file_uri,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	SentAt    int64  `json:"sent_at_unix_ms"`
}

type sendMessageResponse struct {
	envelope
	MessageID string `json:"message_id"`
}

type historyResponse struct {
	envelope
	Messages []wireMessage `json:"data"`
}

type wireMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	SenderID  string `json:"sender_id"`
	Body      string `json:"message"`
	Type      string `json:"type"`
	FileURI   string `json:"file_uri"`
	ReplyTo   string `json:"reply_to"`
	SentAt    int64  `json:"sent_at_unix_ms"`
}

type tokenResponse struct {
	envelope
	Token string `json:"token"`
}
