package account

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/layer-3/warden/ports"
)

const ownableABI = `[
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"newOwner","type":"address"}],"name":"transferOwnership","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// EthereumAccount drives an Ownable-style account contract over JSON-RPC.
// The transactor key must belong to an identity the account has explicitly
// authorized to change ownership, i.e. this recovery instance.
type EthereumAccount struct {
	client  *ethclient.Client
	abi     abi.ABI
	address common.Address
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
}

// NewEthereumAccount creates an adapter for the account contract at address.
func NewEthereumAccount(client *ethclient.Client, address common.Address, chainID *big.Int, key *ecdsa.PrivateKey) (*EthereumAccount, error) {
	parsed, err := abi.JSON(strings.NewReader(ownableABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse account ABI: %w", err)
	}
	return &EthereumAccount{
		client:  client,
		abi:     parsed,
		address: address,
		chainID: chainID,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// CurrentController calls owner() on the account contract.
func (a *EthereumAccount) CurrentController(ctx context.Context) (common.Address, error) {
	data, err := a.abi.Pack("owner")
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to pack owner call: %w", err)
	}

	result, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &a.address, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("owner call failed: %w", err)
	}

	out, err := a.abi.Unpack("owner", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack owner result: %w", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// SetController sends transferOwnership(newController) and waits for the
// transaction to be mined successfully.
func (a *EthereumAccount) SetController(ctx context.Context, newController common.Address) error {
	data, err := a.abi.Pack("transferOwnership", newController)
	if err != nil {
		return fmt.Errorf("failed to pack transferOwnership call: %w", err)
	}

	nonce, err := a.client.PendingNonceAt(ctx, a.from)
	if err != nil {
		return fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := a.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch gas price: %w", err)
	}
	gas, err := a.client.EstimateGas(ctx, ethereum.CallMsg{
		From: a.from,
		To:   &a.address,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &a.address,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(a.chainID), a.key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := a.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, a.client, signed)
	if err != nil {
		return fmt.Errorf("failed waiting for transaction: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transferOwnership transaction %s reverted", signed.Hash().Hex())
	}
	return nil
}

// IsAuthorized reports whether the identity is the current owner or the
// adapter's own transactor.
func (a *EthereumAccount) IsAuthorized(ctx context.Context, identity common.Address) (bool, error) {
	if identity == a.from {
		return true, nil
	}
	owner, err := a.CurrentController(ctx)
	if err != nil {
		return false, err
	}
	return identity == owner, nil
}

var _ ports.Account = (*EthereumAccount)(nil)
