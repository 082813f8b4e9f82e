package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port   string `mapstructure:"port"`
	NodeID string `mapstructure:"node_id"`

	JWT        JWTConfig      `mapstructure:"jwt"`
	MongoSQL   DatabaseConfig `mapstructure:"mongo"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ   RabbitConfig   `mapstructure:"rabbitmq"`
	Hub        HubConfig      `mapstructure:"hub"`
}

// ReconcileWorker definition reconcile_worker YAML structure
type ReconcileWorker struct {
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	RabbitMQ   RabbitConfig   `mapstructure:"rabbitmq"`

	// MetricsPort 空字串表示不開 /metrics
	MetricsPort   string        `mapstructure:"metrics_port"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepAfter    time.Duration `mapstructure:"sweep_after"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

// JWTConfig token verify setting
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// HubConfig websocket hub setting
type HubConfig struct {
	SendBuffer   int           `mapstructure:"send_buffer"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// RelayChannel 空字串表示單節點, 不啟用 redis 跨節點轉發
	RelayChannel string `mapstructure:"relay_channel"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB int `mapstructure:"redis_db"`
	// Addr 有值時使用單機連線, 否則走 sentinel (.env REDIS_SENTINEL*)
	Addr string `mapstructure:"addr"`
	// LockTTL friendship pair lock 的存活時間
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// KafkaConfig relation event stream setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// RabbitConfig reconcile queue setting
type RabbitConfig struct {
	URL           string `mapstructure:"url"`
	Queue         string `mapstructure:"queue"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}
