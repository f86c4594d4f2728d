package feed

// krakenPairs maps dashboard asset symbols to Kraken v2 ticker pair names.
// Kraken still calls Bitcoin XBT; everything else is symbol/USD.
var krakenPairs = map[string]string{
	"BTC":      "XBT/USD",
	"ETH":      "ETH/USD",
	"SOL":      "SOL/USD",
	"XRP":      "XRP/USD",
	"ADA":      "ADA/USD",
	"AVAX":     "AVAX/USD",
	"DOT":      "DOT/USD",
	"LINK":     "LINK/USD",
	"MATIC":    "MATIC/USD",
	"DOGE":     "DOGE/USD",
	"ATOM":     "ATOM/USD",
	"UNI":      "UNI/USD",
	"LTC":      "LTC/USD",
	"NEAR":     "NEAR/USD",
	"APT":      "APT/USD",
	"ARB":      "ARB/USD",
	"OP":       "OP/USD",
	"SUI":      "SUI/USD",
	"SEI":      "SEI/USD",
	"TIA":      "TIA/USD",
	"INJ":      "INJ/USD",
	"FET":      "FET/USD",
	"RNDR":     "RNDR/USD",
	"RENDER":   "RENDER/USD",
	"TAO":      "TAO/USD",
	"BCH":      "BCH/USD",
	"BONK":     "BONK/USD",
	"AAVE":     "AAVE/USD",
	"LDO":      "LDO/USD",
	"PEPE":     "PEPE/USD",
	"WIF":      "WIF/USD",
	"SHIB":     "SHIB/USD",
	"FIL":      "FIL/USD",
	"GRT":      "GRT/USD",
	"PENDLE":   "PENDLE/USD",
	"JUP":      "JUP/USD",
	"ENA":      "ENA/USD",
	"ONDO":     "ONDO/USD",
	"STX":      "STX/USD",
	"MKR":      "MKR/USD",
	"TRX":      "TRX/USD",
	"TON":      "TON/USD",
	"XLM":      "XLM/USD",
	"ALGO":     "ALGO/USD",
	"CRV":      "CRV/USD",
	"SNX":      "SNX/USD",
	"COMP":     "COMP/USD",
	"DYDX":     "DYDX/USD",
	"PYTH":     "PYTH/USD",
	"RUNE":     "RUNE/USD",
	"WLD":      "WLD/USD",
	"HYPE":     "HYPE/USD",
	"TRUMP":    "TRUMP/USD",
	"PUMP":     "PUMP/USD",
	"FARTCOIN": "FARTCOIN/USD",
}

// krakenAssets is the reverse lookup, pair name to asset symbol.
var krakenAssets = func() map[string]string {
	m := make(map[string]string, len(krakenPairs))
	for asset, pair := range krakenPairs {
		m[pair] = asset
	}
	return m
}()

// PairFor returns the Kraken pair name for an asset symbol.
func PairFor(asset string) (string, bool) {
	pair, ok := krakenPairs[asset]
	return pair, ok
}

// AssetFor returns the asset symbol for a Kraken pair name.
func AssetFor(pair string) (string, bool) {
	asset, ok := krakenAssets[pair]
	return asset, ok
}

// SupportedAssets returns every asset symbol the feed can subscribe to.
func SupportedAssets() []string {
	assets := make([]string, 0, len(krakenPairs))
	for asset := range krakenPairs {
		assets = append(assets, asset)
	}
	return assets
}
