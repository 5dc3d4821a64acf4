package telegram

// Wire types for the subset of the Bot API the bot uses.

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"` // epoch seconds, message origination time
	Text      string `json:"text,omitempty"`
	Chat      Chat   `json:"chat"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// WelcomeMessage is the /start reply.
const WelcomeMessage = "👋 *Welcome to Expense Tracker!*\n\n" +
	"Send me your expenses in any format, for example:\n" +
	"• `12.9 chicken rice`\n" +
	"• `45 grab home`\n" +
	"• `netflix 15.90`\n\n" +
	"I'll categorize them and log them to your Google Sheet automatically."
