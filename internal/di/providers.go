package di

import (
	"anonchat/internal/providers"
	"anonchat/internal/services"
)

// ProvideChatStats narrows the chat service to the read-only stats
// surface the metrics provider needs.
func ProvideChatStats(service services.ChatServiceInterface) providers.ChatStatsInterface {
	return service
}
