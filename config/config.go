package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gitlab.com/scpcorp/nft-minter/solana"
)

// ErrConfiguration wraps every error caused by bad user input: missing or
// broken credentials, unknown network.
var ErrConfiguration = errors.New("configuration error")

// Env is the part of the configuration that comes from the environment.
type Env struct {
	WalletPrivateKey string `envconfig:"WALLET_PRIVATE_KEY" required:"true"`
	SolanaRPCURL     string `envconfig:"SOLANA_RPC_URL"`
	SolanaWSURL      string `envconfig:"SOLANA_WS_URL"`
	StorageEndpoint  string `envconfig:"STORAGE_ENDPOINT"`
	StorageAPIKey    string `envconfig:"STORAGE_API_KEY"`
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		log.Printf("[config]: no .env loaded: %v", err)
	}
}

func FromEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if strings.TrimSpace(env.WalletPrivateKey) == "" {
		return Env{}, fmt.Errorf("%w: WALLET_PRIVATE_KEY is empty", ErrConfiguration)
	}
	return env, nil
}

// Session is everything needed to talk to a network on behalf of the payer.
type Session struct {
	Network       solana.NetworkConfig
	Key           solanago.PrivateKey
	StorageAPIKey string
}

// NewSession resolves the network token and decodes the wallet key once.
func NewSession(network string, env Env) (Session, error) {
	cfg, err := solana.ConfigByName(network)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	cfg = cfg.WithOverrides(strings.TrimSpace(env.SolanaRPCURL), strings.TrimSpace(env.SolanaWSURL))
	if endpoint := strings.TrimSpace(env.StorageEndpoint); endpoint != "" {
		cfg.StorageEndpoint = endpoint
	}

	key, err := solana.PrivateKeyFromBase58(env.WalletPrivateKey)
	if err != nil {
		return Session{}, fmt.Errorf("%w: WALLET_PRIVATE_KEY: %w", ErrConfiguration, err)
	}

	return Session{
		Network:       cfg,
		Key:           key,
		StorageAPIKey: env.StorageAPIKey,
	}, nil
}
