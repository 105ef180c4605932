package domain

// BotMetrics is the aggregate snapshot served by GET /v1/metrics/bot.
type BotMetrics struct {
	TotalTurns              int64            `json:"total_turns"`
	TurnsByResolver         map[string]int64 `json:"turns_by_resolver"`
	ClassifierErrors        int64            `json:"classifier_errors"`
	NotificationsSent       int64            `json:"notifications_sent"`
	NotificationsFailed     int64            `json:"notifications_failed"`
	ConversationsStarted    int64            `json:"conversations_started"`
	ClassifierErrorRate     float64          `json:"classifier_error_rate"`
	NotificationSuccessRate float64          `json:"notification_success_rate"`
	Period                  string           `json:"period"`
}
