package cache

import "github.com/stockpilot/backend/internal/infrastructure/config"

func configWithHost(host string) config.RedisConfig {
	return config.RedisConfig{Host: host, Port: 6379}
}
