package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	MongoTransactions       bool
	MetricsPort             string
	JWTSecret               string

	// RegistryBackend selects where live connection ids are tracked: "memory" or "redis".
	RegistryBackend string
	RedisAddr       string

	DispatchWorkers       int
	DispatchQueueSize     int
	FriendshipMaxAttempts int
}

// Load reads the configuration from the environment, after loading a .env file if one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("POSTGRES_CONN_STR", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "socialnetwork")
	v.SetDefault("MONGO_TRANSACTIONS", false)
	v.SetDefault("METRICS_PORT", "9090")
	v.SetDefault("JWT_SECRET", "supersecretjwtkey")
	v.SetDefault("REGISTRY_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("DISPATCH_WORKERS", 4)
	v.SetDefault("DISPATCH_QUEUE_SIZE", 1024)
	v.SetDefault("FRIENDSHIP_MAX_ATTEMPTS", 3)

	return &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		PostgresUrl:             v.GetString("POSTGRES_CONN_STR"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		MongoTransactions:       v.GetBool("MONGO_TRANSACTIONS"),
		MetricsPort:             v.GetString("METRICS_PORT"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		RegistryBackend:         v.GetString("REGISTRY_BACKEND"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		DispatchWorkers:         v.GetInt("DISPATCH_WORKERS"),
		DispatchQueueSize:       v.GetInt("DISPATCH_QUEUE_SIZE"),
		FriendshipMaxAttempts:   v.GetInt("FRIENDSHIP_MAX_ATTEMPTS"),
	}
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
