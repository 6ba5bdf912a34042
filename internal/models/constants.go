// Package models contains data types and constants shared by the chat client.
package models

// FallbackMessage is shown as the assistant reply when an exchange fails
const FallbackMessage = "Something went wrong. Try again!"

// ReplyField is the response field holding the assistant reply
const ReplyField = "message"

// ContentTypeJSON is the media type of request and response bodies
const ContentTypeJSON = "application/json"

// DefaultUserAgent identifies the client to the endpoint
const DefaultUserAgent = "klosachat/0.1"

// DefaultHeaders returns the headers sent with every exchange
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": ContentTypeJSON,
		"Accept":       ContentTypeJSON,
	}
}
