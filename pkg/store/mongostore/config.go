package mongostore

import "time"

// Config represents the configuration for the state collection.
type Config struct {
	ConnectionURL   string        `env:"TRANSIT_MONGO_URL,required"`                         // ConnectionURL is the URL of the database.
	Database        string        `env:"TRANSIT_MONGO_DATABASE" envDefault:"transit"`        // Database holds the state collection.
	Collection      string        `env:"TRANSIT_MONGO_COLLECTION" envDefault:"states"`       // Collection holds one document per target.
	ConnectTimeout  time.Duration `env:"TRANSIT_MONGO_CONNECT_TIMEOUT" envDefault:"10s"`     // ConnectTimeout is the timeout for connecting to the database.
	MaxPoolSize     uint64        `env:"TRANSIT_MONGO_MAX_POOL_SIZE" envDefault:"100"`       // MaxPoolSize is the maximum number of pooled connections.
	MinPoolSize     uint64        `env:"TRANSIT_MONGO_MIN_POOL_SIZE" envDefault:"1"`         // MinPoolSize is the minimum number of pooled connections.
	MaxConnIdleTime time.Duration `env:"TRANSIT_MONGO_MAX_CONN_IDLE_TIME" envDefault:"300s"` // MaxConnIdleTime is how long a pooled connection may stay idle.
	RetryAttempts   int           `env:"TRANSIT_MONGO_RETRY_ATTEMPTS" envDefault:"3"`        // RetryAttempts is the number of connection attempts.
	RetryInterval   time.Duration `env:"TRANSIT_MONGO_RETRY_INTERVAL" envDefault:"5s"`       // RetryInterval is the wait between attempts.
}
