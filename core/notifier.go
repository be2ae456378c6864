package core

// Notifier publishes events to real-time subscribers of a topic.
// Publish is fire-and-forget: it must neither block on slow subscribers nor fail the caller.
type Notifier interface {
	Publish(topic string, payload interface{})
}
