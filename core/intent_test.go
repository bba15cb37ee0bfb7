package core

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func baseIntent() Intent {
	return Intent{
		Account:            common.HexToAddress("0x1111111111111111111111111111111111111111"),
		ProposedController: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Counter:            3,
		Expiry:             1_900_000_000,
		ChainID:            big.NewInt(1),
		Instance:           common.HexToAddress("0x3333333333333333333333333333333333333333"),
	}
}

func TestCommitmentDeterministic(t *testing.T) {
	assert.Equal(t, baseIntent().Commitment(), baseIntent().Commitment())
}

func TestCommitmentBindsEveryField(t *testing.T) {
	reference := baseIntent().Commitment()

	mutations := map[string]func(*Intent){
		"account":             func(i *Intent) { i.Account[0] ^= 0xff },
		"proposed controller": func(i *Intent) { i.ProposedController[0] ^= 0xff },
		"counter":             func(i *Intent) { i.Counter++ },
		"expiry":              func(i *Intent) { i.Expiry++ },
		"chain id":            func(i *Intent) { i.ChainID = big.NewInt(137) },
		"instance":            func(i *Intent) { i.Instance[0] ^= 0xff },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			intent := baseIntent()
			mutate(&intent)
			assert.NotEqual(t, reference, intent.Commitment())
		})
	}
}

func TestCommitmentBindsScheme(t *testing.T) {
	intent := baseIntent()

	// A digest under a different domain name or version never collides with
	// the live scheme's commitments.
	domain := intent.Domain()
	domain.Version = "2"
	assert.NotEqual(t, intent.Domain().Separator(), domain.Separator())
}
