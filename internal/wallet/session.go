// Package wallet owns the signing session against an EVM endpoint: the active
// account, the chain id, transaction submission, and confirmation waits.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Kind selects how signing capability is obtained.
type Kind string

const (
	// KindInjected signs locally with key material present in the host
	// environment, the headless analogue of a browser-injected provider.
	KindInjected Kind = "injected"
	// KindRelay defers signing to the remote node's managed accounts.
	KindRelay Kind = "relay"
)

var (
	// ErrWalletUnavailable means no signing capability is present at all.
	ErrWalletUnavailable = errors.New("wallet unavailable")
	// ErrUserRejected means the key holder declined to sign.
	ErrUserRejected = errors.New("rejected by user")
	// ErrConfirmTimeout means a mining wait gave up before a receipt appeared.
	// Distinct from rejection: the transaction may still land.
	ErrConfirmTimeout = errors.New("confirmation timed out")
	// ErrReverted means the transaction was mined but failed.
	ErrReverted = errors.New("execution reverted")
)

// Backend is the slice of the Ethereum RPC surface the session depends on.
// *ethclient.Client satisfies it; tests substitute fakes.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// relayCaller serves relay sessions: raw RPC access for eth_accounts and
// eth_sendTransaction, which ethclient does not expose.
type relayCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// TxRequest describes a transaction to sign and broadcast.
type TxRequest struct {
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64 // 0 means estimate
}

// TxHandle identifies a broadcast transaction.
type TxHandle struct {
	Hash common.Hash
}

// Option configures Session construction parameters.
type Option func(*Session)

// WithReceiptPollInterval overrides how often AwaitConfirmation polls.
func WithReceiptPollInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithKeyEnvName overrides the environment variable holding the hex private key.
func WithKeyEnvName(name string) Option {
	return func(s *Session) {
		if name != "" {
			s.keyEnvName = name
		}
	}
}

// WithRelayCaller injects the raw RPC caller used by relay sessions.
func WithRelayCaller(c relayCaller) Option {
	return func(s *Session) { s.relay = c }
}

// Session is the wallet connection. All exported methods are safe for
// concurrent use; cached account/chain state is invalidated on change events.
type Session struct {
	backend      Backend
	relay        relayCaller
	kind         Kind
	log          zerolog.Logger
	keyEnvName   string
	pollInterval time.Duration

	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	account common.Address
	chainID *big.Int
	valid   bool
}

const defaultKeyEnvName = "DEXSIGNAL_PRIVATE_KEY"

// NewSession wraps a backend; call Connect before use.
func NewSession(backend Backend, kind Kind, log zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		backend:      backend,
		kind:         kind,
		log:          log,
		keyEnvName:   defaultKeyEnvName,
		pollInterval: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend exposes the underlying node connection for read-only callers.
func (s *Session) Backend() Backend { return s.backend }

// Dial connects an ethclient backend and returns a session over it.
func Dial(rpcURL string, kind Kind, log zerolog.Logger, opts ...Option) (*Session, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	if kind == KindRelay {
		opts = append(opts, WithRelayCaller(client.Client()))
	}
	return NewSession(client, kind, log, opts...), nil
}

// Connect establishes the session: resolves the account and chain id.
func (s *Session) Connect(ctx context.Context) (common.Address, uint64, error) {
	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("query chain id: %w", err)
	}

	var account common.Address
	switch s.kind {
	case KindRelay:
		account, err = s.relayAccount(ctx)
	default:
		account, err = s.loadKey()
	}
	if err != nil {
		return common.Address{}, 0, err
	}

	s.mu.Lock()
	s.account = account
	s.chainID = chainID
	s.valid = true
	s.mu.Unlock()

	s.log.Info().Str("account", account.Hex()).Uint64("chain", chainID.Uint64()).
		Str("kind", string(s.kind)).Msg("wallet session connected")
	return account, chainID.Uint64(), nil
}

func (s *Session) loadKey() (common.Address, error) {
	_ = godotenv.Load() // best-effort
	hexKey := strings.TrimPrefix(os.Getenv(s.keyEnvName), "0x")
	if hexKey == "" {
		return common.Address{}, fmt.Errorf("%s not set: %w", s.keyEnvName, ErrWalletUnavailable)
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func (s *Session) relayAccount(ctx context.Context) (common.Address, error) {
	if s.relay == nil {
		return common.Address{}, ErrWalletUnavailable
	}
	var accounts []common.Address
	if err := s.relay.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return common.Address{}, classifyProviderError(err)
	}
	if len(accounts) == 0 {
		return common.Address{}, ErrWalletUnavailable
	}
	return accounts[0], nil
}

// Account returns the connected account, or false if the session is invalid.
func (s *Session) Account() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account, s.valid
}

// ChainID returns the connected chain id; zero when disconnected.
func (s *Session) ChainID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid || s.chainID == nil {
		return 0
	}
	return s.chainID.Uint64()
}

// Invalidate drops cached account/chain state. Callers must Connect again and
// re-fetch everything derived from the old session (balances, allowances, quotes).
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
	s.log.Info().Msg("wallet session invalidated")
}

// Refresh re-reads the chain id and invalidates the session if it moved.
// Returns true when the cached state is still current.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	current, err := s.backend.ChainID(ctx)
	if err != nil {
		return false, fmt.Errorf("query chain id: %w", err)
	}
	s.mu.RLock()
	same := s.valid && s.chainID != nil && s.chainID.Cmp(current) == 0
	s.mu.RUnlock()
	if !same {
		s.Invalidate()
	}
	return same, nil
}

// NativeBalance reads the gas-token balance. Best-effort display data: any
// read failure yields zero rather than an error.
func (s *Session) NativeBalance(ctx context.Context, account common.Address) *big.Int {
	bal, err := s.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("account", account.Hex()).Msg("native balance read failed")
		return new(big.Int)
	}
	return bal
}

// SignAndSend submits a transaction and returns its handle. Injected sessions
// sign locally; relay sessions forward an eth_sendTransaction and surface a
// holder's rejection as ErrUserRejected.
func (s *Session) SignAndSend(ctx context.Context, req TxRequest) (TxHandle, error) {
	s.mu.RLock()
	valid := s.valid
	kind := s.kind
	s.mu.RUnlock()
	if !valid {
		return TxHandle{}, ErrWalletUnavailable
	}
	if kind == KindRelay {
		return s.relaySend(ctx, req)
	}
	return s.localSend(ctx, req)
}

func (s *Session) localSend(ctx context.Context, req TxRequest) (TxHandle, error) {
	s.mu.RLock()
	key := s.key
	account := s.account
	chainID := s.chainID
	s.mu.RUnlock()
	if key == nil {
		return TxHandle{}, ErrWalletUnavailable
	}

	nonce, err := s.backend.PendingNonceAt(ctx, account)
	if err != nil {
		return TxHandle{}, fmt.Errorf("query nonce: %w", err)
	}
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return TxHandle{}, fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		msg := ethereum.CallMsg{From: account, To: &req.To, Value: req.Value, Data: req.Data}
		gasLimit, err = s.backend.EstimateGas(ctx, msg)
		if err != nil {
			return TxHandle{}, fmt.Errorf("estimate gas: %w", err)
		}
		gasLimit = gasLimit * 120 / 100
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &req.To,
		Value:    req.Value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return TxHandle{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return TxHandle{}, fmt.Errorf("send transaction: %w", err)
	}
	s.log.Debug().Str("tx", signed.Hash().Hex()).Msg("transaction broadcast")
	return TxHandle{Hash: signed.Hash()}, nil
}

func (s *Session) relaySend(ctx context.Context, req TxRequest) (TxHandle, error) {
	if s.relay == nil {
		return TxHandle{}, ErrWalletUnavailable
	}
	s.mu.RLock()
	account := s.account
	s.mu.RUnlock()

	param := map[string]any{
		"from": account.Hex(),
		"to":   req.To.Hex(),
	}
	if req.Value != nil && req.Value.Sign() > 0 {
		param["value"] = "0x" + req.Value.Text(16)
	}
	if len(req.Data) > 0 {
		param["data"] = "0x" + common.Bytes2Hex(req.Data)
	}
	if req.GasLimit > 0 {
		param["gas"] = "0x" + new(big.Int).SetUint64(req.GasLimit).Text(16)
	}

	var hash common.Hash
	if err := s.relay.CallContext(ctx, &hash, "eth_sendTransaction", param); err != nil {
		return TxHandle{}, classifyProviderError(err)
	}
	return TxHandle{Hash: hash}, nil
}

// AwaitConfirmation blocks until the transaction is mined, the context ends,
// or the receipt reports a revert. A context deadline surfaces as
// ErrConfirmTimeout so callers can tell a hang from a rejection.
func (s *Session) AwaitConfirmation(ctx context.Context, handle TxHandle) (*types.Receipt, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, handle.Hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("tx %s: %w", handle.Hash.Hex(), ErrReverted)
			}
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			s.log.Debug().Err(err).Str("tx", handle.Hash.Hex()).Msg("receipt poll failed")
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("tx %s: %w", handle.Hash.Hex(), ErrConfirmTimeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// classifyProviderError maps a relay provider refusal onto the session's
// sentinel errors.
func classifyProviderError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied") {
		return fmt.Errorf("%w: %s", ErrUserRejected, err)
	}
	return fmt.Errorf("provider: %w", err)
}
