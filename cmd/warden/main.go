package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"strconv"

	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/warden/adapters/account"
	"github.com/layer-3/warden/adapters/events"
	"github.com/layer-3/warden/adapters/store"
	"github.com/layer-3/warden/adapters/tokenizer"
	"github.com/layer-3/warden/adapters/verify"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/internal/eth"
	"github.com/layer-3/warden/ports"
	"github.com/layer-3/warden/service"
	"github.com/layer-3/warden/transport/http"
)

func main() {
	ctx := context.Background()

	// Generate a fresh ECDSA key for signing owner tokens (you would
	// normally load this from somewhere secure)
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatalf("Failed to generate token signing key: %v", err)
	}

	instance := mustAddress("INSTANCE_ADDRESS")
	chainID := new(big.Int).SetUint64(mustUint("CHAIN_ID"))

	// Redis backs both instance state and token revocation
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)

	logger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to create Redis publisher: %v", err)
	}

	redisStore := store.NewRedisStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)

	acct := buildAccount(chainID)
	verifiers := buildVerifiers()

	recovery, err := service.NewRecovery(ctx, service.RecoveryConfig{
		Instance:  instance,
		ChainID:   chainID,
		Account:   acct,
		Store:     redisStore,
		Events:    eventPub,
		Verifiers: verifiers,
	})
	if err != nil {
		log.Fatalf("Failed to load recovery instance: %v", err)
	}

	domain := eth.EIP712Domain{
		Name:              core.SchemeName,
		Version:           core.SchemeVersion,
		ChainID:           chainID,
		VerifyingContract: instance,
	}
	jwtTokenizer := tokenizer.NewJWTTokenizer(signKey, domain)
	authService := service.NewAuth(jwtTokenizer, redisStore, acct)

	router := http.SetupRouter(recovery, authService)

	addr := os.Getenv("WARDEN_ADDR")
	if addr == "" {
		addr = ":9000"
	}
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildAccount wires the managed account: an on-chain Ownable contract when
// ETH_RPC_URL is set, otherwise an in-memory account for local deployments.
func buildAccount(chainID *big.Int) ports.Account {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		owner := mustAddress("OWNER_ADDRESS")
		return account.NewMemoryAccount(owner)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		log.Fatalf("Failed to dial Ethereum RPC: %v", err)
	}
	key, err := ethcrypto.HexToECDSA(os.Getenv("CONTROLLER_KEY"))
	if err != nil {
		log.Fatalf("Failed to parse CONTROLLER_KEY: %v", err)
	}
	acct, err := account.NewEthereumAccount(client, mustAddress("ACCOUNT_ADDRESS"), chainID, key)
	if err != nil {
		log.Fatalf("Failed to create account adapter: %v", err)
	}
	return acct
}

// buildVerifiers wires one verifier per guardian method. The zero-knowledge
// verifier is only available when a verifying key is configured.
func buildVerifiers() map[core.Method]ports.Verifier {
	verifiers := map[core.Method]ports.Verifier{
		core.MethodEOA:       verify.NewEOAVerifier(),
		core.MethodBiometric: verify.NewWebAuthnVerifier(),
	}

	vkPath := os.Getenv("GROTH16_VK_PATH")
	if vkPath == "" {
		return verifiers
	}
	f, err := os.Open(vkPath)
	if err != nil {
		log.Fatalf("Failed to open verifying key: %v", err)
	}
	defer f.Close()

	vk, err := verify.LoadVerifyingKey(f)
	if err != nil {
		log.Fatalf("Failed to load verifying key: %v", err)
	}
	keyLimbs := 8
	if v := os.Getenv("ZK_KEY_LIMBS"); v != "" {
		keyLimbs, err = strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Failed to parse ZK_KEY_LIMBS: %v", err)
		}
	}
	verifiers[core.MethodZeroKnowledge] = verify.NewGroth16Verifier(vk, keyLimbs)
	return verifiers
}

func mustAddress(env string) common.Address {
	value := os.Getenv(env)
	if !common.IsHexAddress(value) {
		log.Fatalf("%s must be a hex address, got %q", env, value)
	}
	return common.HexToAddress(value)
}

func mustUint(env string) uint64 {
	value, err := strconv.ParseUint(os.Getenv(env), 10, 64)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", env, err)
	}
	return value
}
