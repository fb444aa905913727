package config

import (
	"time"
)

type DB struct {
	Url          string `envconfig:"URL"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
	AutoMigrate  bool   `envconfig:"AUTO_MIGRATE" default:"true"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

// Redis backs the idempotency store. An empty URL selects the in-memory store.
type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"payledger:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

// Kafka carries domain events. Empty Brokers selects the in-memory bus.
type Kafka struct {
	Brokers     string `envconfig:"BROKERS"`
	GroupID     string `envconfig:"GROUP_ID" default:"payledger"`
	TopicPrefix string `envconfig:"TOPIC_PREFIX" default:"payledger.events"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Ledger holds money-movement settings. Amounts are decimal strings in major units.
type Ledger struct {
	DefaultBalance          string        `envconfig:"DEFAULT_BALANCE" default:"1000.00"`
	DefaultTransactionLimit string        `envconfig:"DEFAULT_TRANSACTION_LIMIT" default:"5000.00"`
	RetryAttempts           int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryInterval           time.Duration `envconfig:"RETRY_INTERVAL" default:"20ms"`
	HistoryLimit            int           `envconfig:"HISTORY_LIMIT" default:"100"`
}

type Idempotency struct {
	TTL time.Duration `envconfig:"TTL" default:"24h"`
	// EventTTL bounds how long handled event keys are remembered.
	EventTTL time.Duration `envconfig:"EVENT_TTL" default:"1h"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[payledger]"`
}

type Server struct {
	Scheme          string        `envconfig:"SCHEME" default:"http"`
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type App struct {
	Env         string       `envconfig:"APP_ENV" default:"development"`
	Server      *Server      `envconfig:"SERVER"`
	Log         *Log         `envconfig:"LOG"`
	DB          *DB          `envconfig:"DATABASE"`
	Auth        *Auth        `envconfig:"AUTH"`
	Redis       *Redis       `envconfig:"REDIS"`
	Kafka       *Kafka       `envconfig:"KAFKA"`
	RateLimit   *RateLimit   `envconfig:"RATE_LIMIT"`
	Ledger      *Ledger      `envconfig:"LEDGER"`
	Idempotency *Idempotency `envconfig:"IDEMPOTENCY"`
}
