// Package queue carries fire-and-forget notification events over RabbitMQ.
// Publishing is best-effort: the primary mutation is already durable by the
// time an event is emitted, so publish failures are logged, never surfaced.
package queue

import "context"

const notificationQueueName = "lms.notifications"

// Event kinds understood by the consumer. Kinds carrying a recipient email
// result in an outbound mail; the rest are logged only.
const (
	KindQuestionAsked    = "question.asked"
	KindQuestionAnswered = "question.answered"
	KindReviewAdded      = "review.added"
	KindReviewReplied    = "review.replied"
	KindOrderPlaced      = "order.placed"
)

// Event is the payload published to the notification sink.
type Event struct {
	Kind      string            `json:"kind"`
	Recipient string            `json:"recipient,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Template  string            `json:"template,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Publisher is the notification sink capability consumed by services.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
