package tickets

import "strings"

const topicPrefix = "ticket:"

// Topic is written to every ticket channel so the channel can be recognised
// without any in-memory state.
func Topic(panelKey, requesterID string) string {
	return topicPrefix + panelKey + ":" + requesterID
}

// ParseTopic reverses Topic.
func ParseTopic(topic string) (panelKey, requesterID string, ok bool) {
	if !strings.HasPrefix(topic, topicPrefix) {
		return "", "", false
	}
	parts := strings.Split(strings.TrimPrefix(topic, topicPrefix), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
