// Package bootstrap builds the backend clients shared by the server and the admin CLI.
package bootstrap

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"go-firestore-estate/internal/auth"
	"go-firestore-estate/internal/config"
	"go-firestore-estate/internal/database"
	"go-firestore-estate/internal/visitors"

	Firestore "firebase.google.com/go/v4"
	firebaseAuth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

func ConfigureLogging(cnf config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cnf.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cnf.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// Backend is the document store plus, on Firestore, the Firebase auth client.
type Backend struct {
	DB   database.Client
	Auth *firebaseAuth.Client
}

// TokenAdmin returns nil on the memory backend, where tokens cannot be verified.
func (b Backend) TokenAdmin() auth.TokenAdmin {
	if b.Auth == nil {
		return nil
	}
	return b.Auth
}

func (b Backend) Close() {
	if err := b.DB.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close the document store")
	}
}

func OpenOrPanic(ctx context.Context, cnf config.Config) Backend {
	if !cnf.UsesFirestore() {
		log.Warn().Msg("using the in-memory store, nothing is persisted")
		return Backend{DB: database.NewMemoryStore()}
	}

	app := createFirestoreAppOrPanic(ctx, cnf.Firebase)

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		panic(err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		panic(err)
	}

	return Backend{
		DB:   database.New(firestoreClient, cnf.WriteTimeoutSecond),
		Auth: authClient,
	}
}

func createFirestoreAppOrPanic(ctx context.Context, cnf config.Firebase) *Firestore.App {
	FirestoreCreds, err := json.Marshal(cnf)
	if err != nil {
		panic(err)
	}

	sa := option.WithCredentialsJSON(FirestoreCreds)
	app, err := Firestore.NewApp(ctx, &Firestore.Config{ProjectID: cnf.ProjectId}, sa)
	if err != nil {
		panic(err)
	}
	return app
}

// NewSigner returns nil when no web API key is configured.
func NewSigner(ctx context.Context, cnf config.Config) auth.PasswordSigner {
	if cnf.Firebase.WebApiKey == "" {
		log.Warn().Msg("FIREBASE_WEB_API_KEY is not set, password sign-in is disabled")
		return nil
	}

	signer, err := auth.NewIdentityToolkitSigner(ctx, cnf.Firebase.WebApiKey)
	if err != nil {
		panic(err)
	}
	return signer
}

// NewRegistryOrPanic uses Redis when REDIS_ADDR is set and process memory otherwise. The returned
// func releases the registry.
func NewRegistryOrPanic(ctx context.Context, cnf config.Config) (visitors.Registry, func()) {
	if cnf.Redis.Addr == "" {
		return visitors.NewMemoryRegistry(cnf.Visitors.SeenTTL, 0), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cnf.Redis.Addr,
		Password: cnf.Redis.Password,
		DB:       cnf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		panic(err)
	}

	log.Info().Msgf("visitor registry on redis %s", cnf.Redis.Addr)
	return visitors.NewRedisRegistry(client, cnf.Visitors.SeenTTL), func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
}
