package solana

import (
	"errors"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

// DefaultKeyEnvName holds the base58 signing key for the aggregator relay.
const DefaultKeyEnvName = "DEXSIGNAL_SOLANA_PRIVATE_KEY"

// LoadPrivateKeyFromEnv reads the signing key from env (a .env file is
// loaded best-effort first). An empty envName falls back to the default.
func LoadPrivateKeyFromEnv(envName string) (solana.PrivateKey, error) {
	_ = godotenv.Load()
	if envName == "" {
		envName = DefaultKeyEnvName
	}
	b58 := os.Getenv(envName)
	if b58 == "" {
		return nil, errors.New(envName + " not set")
	}
	return solana.PrivateKeyFromBase58(b58)
}
