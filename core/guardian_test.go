package core

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEOAIdentifierRoundTrip(t *testing.T) {
	addr := common.HexToAddress("0x52908400098527886E0F7030069857D2E4169EE7")

	id := EOAIdentifier(addr)
	assert.Equal(t, addr.Bytes(), id[12:])
	assert.Equal(t, make([]byte, 12), id[:12])

	decoded, err := EOAAddress(id)
	require.NoError(t, err)
	assert.Equal(t, addr, decoded)
}

func TestEOAAddressRejectsNonCanonical(t *testing.T) {
	addr := common.HexToAddress("0x52908400098527886E0F7030069857D2E4169EE7")
	id := EOAIdentifier(addr)
	id[0] = 0x01 // set a bit above the address width

	_, err := EOAAddress(id)
	assert.Error(t, err)
}

func TestBiometricIdentifierDeterministic(t *testing.T) {
	x, _ := new(big.Int).SetString("69187469364468817480046447014225073311", 10)
	y, _ := new(big.Int).SetString("13646778088124259304865490110192236087", 10)

	first := BiometricIdentifier(x, y)
	second := BiometricIdentifier(x, y)
	assert.Equal(t, first, second)

	// Matches keccak256 of the fixed-width concatenated coordinates.
	buf := make([]byte, 64)
	x.FillBytes(buf[:32])
	y.FillBytes(buf[32:])
	assert.Equal(t, crypto.Keccak256Hash(buf), first)

	// Different key material yields a different identifier.
	other := BiometricIdentifier(y, x)
	assert.NotEqual(t, first, other)
}

func TestGuardianValidate(t *testing.T) {
	addr := common.HexToAddress("0x52908400098527886E0F7030069857D2E4169EE7")

	tests := []struct {
		name     string
		guardian Guardian
		wantErr  bool
	}{
		{
			name:     "valid eoa",
			guardian: Guardian{Method: MethodEOA, Identifier: EOAIdentifier(addr)},
		},
		{
			name:     "valid zk",
			guardian: Guardian{Method: MethodZeroKnowledge, Identifier: common.HexToHash("0x01")},
		},
		{
			name:     "zero identifier",
			guardian: Guardian{Method: MethodEOA},
			wantErr:  true,
		},
		{
			name:     "non-canonical eoa identifier",
			guardian: Guardian{Method: MethodEOA, Identifier: common.HexToHash("0x010000000000000000000000" + "52908400098527886E0F7030069857D2E4169EE7")},
			wantErr:  true,
		},
		{
			name:     "unknown method",
			guardian: Guardian{Method: Method(7), Identifier: common.HexToHash("0x01")},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.guardian.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMethodJSONRoundTrip(t *testing.T) {
	for _, m := range []Method{MethodEOA, MethodBiometric, MethodZeroKnowledge} {
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var decoded Method
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, m, decoded)
	}

	var m Method
	assert.Error(t, json.Unmarshal([]byte(`"totp"`), &m))

	_, err := json.Marshal(Method(42))
	assert.Error(t, err)
}
