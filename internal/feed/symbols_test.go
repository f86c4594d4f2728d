package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairFor(t *testing.T) {
	t.Parallel()

	pair, ok := PairFor("BTC")
	assert.True(t, ok)
	assert.Equal(t, "XBT/USD", pair)

	pair, ok = PairFor("SOL")
	assert.True(t, ok)
	assert.Equal(t, "SOL/USD", pair)

	_, ok = PairFor("NOTACOIN")
	assert.False(t, ok)
}

func TestAssetFor_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, asset := range SupportedAssets() {
		pair, ok := PairFor(asset)
		assert.True(t, ok)
		back, ok := AssetFor(pair)
		assert.True(t, ok)
		assert.Equal(t, asset, back)
	}

	asset, ok := AssetFor("XBT/USD")
	assert.True(t, ok)
	assert.Equal(t, "BTC", asset)
}
