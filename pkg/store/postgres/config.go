package postgres

import "time"

type Config struct {
	ConnectionString  string        `env:"TRANSIT_PG_CONN_URL,required"`                   // ConnectionString is the connection string to the database.
	MaxOpenConns      int32         `env:"TRANSIT_PG_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the maximum number of open connections.
	MaxIdleConns      int32         `env:"TRANSIT_PG_MAX_IDLE_CONNS" envDefault:"5"`       // MaxIdleConns is the minimum number of kept connections.
	HealthCheckPeriod time.Duration `env:"TRANSIT_PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between health checks.
	MaxConnIdleTime   time.Duration `env:"TRANSIT_PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum time a connection may be idle.
	MaxConnLifetime   time.Duration `env:"TRANSIT_PG_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum time a connection may be reused.

	RetryAttempts int           `env:"TRANSIT_PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts.
	RetryInterval time.Duration `env:"TRANSIT_PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the base wait between attempts.

	Table string `env:"TRANSIT_PG_TABLE" envDefault:"transit_states"` // Table is the table holding the states.
}
