package store

// Sender identifies who authored a message.
type Sender string

const (
	// SenderUser is a message typed by the person using the app.
	SenderUser Sender = "user"
	// SenderBot is a reply produced by the assistant.
	SenderBot Sender = "bot"
)

// User is an account record matched or created at login.
type User struct {
	ID          string
	Email       string
	PhoneNumber string
}

// Chat is one conversation thread owned by a user.
type Chat struct {
	ID        string
	Heading   string
	CreatedAt int64 // unix ms
	UpdatedAt int64 // unix ms
}

// Message is a single entry in a chat thread. CreatedAt is supplied by the
// caller at submit time so the optimistic local entry and the persisted
// record carry the same instant.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	CreatedAt int64 // unix ms
}
