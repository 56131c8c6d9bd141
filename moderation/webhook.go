package moderation

import "sync"

// WebhookStrikes counts unauthorized webhook creations in one guild.
type WebhookStrikes struct {
	mu        sync.Mutex
	count     int
	threshold int
}

func NewWebhookStrikes(threshold int) *WebhookStrikes {
	return &WebhookStrikes{threshold: threshold}
}

// Strike records one unauthorized creation. When the threshold is reached it
// reports triggered and the counter starts over.
func (w *WebhookStrikes) Strike() (count int, triggered bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.count++
	count = w.count
	if w.threshold > 0 && w.count >= w.threshold {
		w.count = 0
		return count, true
	}
	return count, false
}

func (w *WebhookStrikes) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}
