// Package webhook posts messages to a single Slack [Incoming Webhook] URL.
//
// Each [Client] is bound to one webhook. These URLs require no authorization
// other than the URL itself. Messages are sent as a URL-encoded form with a
// single "payload" field, whose value is the JSON-serialized message.
//
// [Incoming Webhook]: https://docs.slack.dev/messaging/sending-messages-using-incoming-webhooks
package webhook
