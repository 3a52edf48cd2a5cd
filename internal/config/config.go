package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Chat     ChatConfig     `envPrefix:"CHAT_"`
	Blob     BlobConfig     `envPrefix:"BLOB_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
}

type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
}

type DatabaseConfig struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"chatserver"`
}

type AuthConfig struct {
	JWTSecret   string        `env:"JWT_SECRET,required"`
	TokenExpiry time.Duration `env:"TOKEN_EXPIRY" envDefault:"24h"`
}

type ChatConfig struct {
	// TypingExpiry is how long a typing indicator stays alive without an
	// explicit typing-stop from the client.
	TypingExpiry time.Duration `env:"TYPING_EXPIRY" envDefault:"3s"`
	// DeliveredDelay is the delay between persisting a message and flipping
	// its status to delivered.
	DeliveredDelay time.Duration `env:"DELIVERED_DELAY" envDefault:"1s"`
	SendBufferSize int           `env:"SEND_BUFFER_SIZE" envDefault:"256"`
	MaxContentLen  int           `env:"MAX_CONTENT_LEN" envDefault:"2000"`
}

type BlobConfig struct {
	Dir string `env:"DIR" envDefault:"uploads"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"chat-events"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
