package redisstore

import "time"

type Config struct {
	ConnectionURL  string        `env:"TRANSIT_REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL is the URL of the server, "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"TRANSIT_REDIS_RETRY_ATTEMPTS" envDefault:"3"`                      // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"TRANSIT_REDIS_RETRY_INTERVAL" envDefault:"5s"`                     // RetryInterval is the wait between attempts.
	ConnectTimeout time.Duration `env:"TRANSIT_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                   // ConnectTimeout bounds the whole connection phase.
	KeyPrefix      string        `env:"TRANSIT_REDIS_KEY_PREFIX" envDefault:"transit:"`                   // KeyPrefix is prepended to every state key.
	TTL            time.Duration `env:"TRANSIT_REDIS_TTL" envDefault:"0s"`                                // TTL expires state keys; zero keeps them forever.
}
