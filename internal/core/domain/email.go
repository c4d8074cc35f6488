package domain

// Email is an outbound message handed to the notification outbox.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}
