package config

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

type Firebase struct {
	Type                    string        `env:"FIREBASE_TYPE" json:"type"`
	ProjectId               string        `env:"FIREBASE_PROJECT_ID" json:"project_id"`
	PrivateKeyId            string        `env:"FIREBASE_PRIVATE_KEY_ID" json:"private_key_id"`
	PrivateKey              string        `env:"FIREBASE_PRIVATE_KEY" json:"private_key"`
	ClientEmail             string        `env:"FIREBASE_CLIENT_EMAIL" json:"client_email"`
	ClientId                string        `env:"FIREBASE_CLIENT_ID" json:"client_id"`
	AuthUri                 string        `env:"FIREBASE_AUTH_URI" json:"auth_uri"`
	TokenUri                string        `env:"FIREBASE_TOKEN_URI" json:"token_uri"`
	AuthProviderX509CertUrl string        `env:"FIREBASE_AUTH_PROVIDER_X509_CERT_URL" json:"auth_provider_x509_cert_url"`
	ClientX509CertUrl       string        `env:"FIREBASE_CLIENT_X509_CERT_URL" json:"client_x509_cert_url"`
	WebApiKey               string        `env:"FIREBASE_WEB_API_KEY" json:"-"`
	WriteTimeoutSecond      time.Duration `env:"FIREBASE_WRITE_TIMEOUT_SECOND" json:"-"`
}

type Server struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Visitors struct {
	// How long a visitor id counts as "seen" for the unique-visitor counters.
	SeenTTL            time.Duration `env:"VISITOR_TTL" envDefault:"24h"`
	ReconcileInterval  time.Duration `env:"RECONCILE_INTERVAL" envDefault:"0"`
	DailyWindow        int           `env:"VISITOR_DAILY_WINDOW" envDefault:"7"`
	AllowLegacyCleanup bool          `env:"ALLOW_LEGACY_CLEANUP" envDefault:"false"`
}

type Listing struct {
	PlaceholderUrl string `env:"PROPERTY_PLACEHOLDER_URL"`
}

type Config struct {
	Env          string `env:"ENV" envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"firestore"`
	Firebase
	Server
	Redis
	Visitors
	Listing
}

func LoadConfigOrPanic() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using the process environment")
	}

	var config *Config = new(Config)
	if err := env.Parse(config); err != nil {
		panic(err)
	}

	config.normalize()
	return *config
}

func (c *Config) normalize() {

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	if c.StoreBackend != StoreMemory {
		c.StoreBackend = StoreFirestore
	}

	if c.Firebase.PrivateKey != "" {
		decodedBytes, err := base64.StdEncoding.DecodeString(c.Firebase.PrivateKey)
		if err != nil {
			panic(err)
		}
		c.Firebase.PrivateKey = string(decodedBytes)
		c.Firebase.PrivateKey = strings.ReplaceAll(c.Firebase.PrivateKey, "\\n", "\n")
	}

	if c.WriteTimeoutSecond == 0 {
		c.WriteTimeoutSecond = time.Second * 30
	}

	if c.Visitors.DailyWindow <= 0 {
		c.Visitors.DailyWindow = 7
	}
}

// UsesFirestore reports whether the Firebase backend must be initialised.
func (c Config) UsesFirestore() bool {
	return c.StoreBackend == StoreFirestore
}
