package notify

import (
	"go.uber.org/zap"

	"repairdesk/internal/config"
	"repairdesk/internal/usecase"
)

// FromConfig picks the event publisher: redis stream when an address is
// configured, otherwise log-only. The returned func releases whatever
// the publisher holds.
func FromConfig(cfg config.Config, logger *zap.Logger) (usecase.EventPublisher, func(), error) {
	if cfg.RedisAddr == "" {
		return NewLogPublisher(logger), func() {}, nil
	}
	pub, err := NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisStream)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() { pub.Close() }, nil
}
