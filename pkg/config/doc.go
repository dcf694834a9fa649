// Package config loads environment-driven settings into tagged structs using
// github.com/caarlos0/env/v11, with optional .env files read through
// github.com/joho/godotenv.
//
// Load caches one value per struct type, so repeated calls for the same type
// are cheap and consistent. Parse skips the cache and accepts options such as
// a variable prefix, which lets two stores of the same kind be configured
// side by side:
//
//	var pg postgres.Config
//	config.MustLoad(&pg)
//
//	replica, err := config.Parse[postgres.Config](config.WithPrefix("REPLICA_"))
package config
