package chain

import "github.com/ethereum/go-ethereum/common"

func hex(s string) common.Address { return common.HexToAddress(s) }

// registry lists every supported network. The first token on each chain is the
// native gas token; its address is the sentinel, not a contract.
var registry = map[uint64]Chain{
	1: {
		ID:            1,
		Name:          "Ethereum",
		Explorer:      "https://etherscan.io",
		Router:        hex("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"), // Uniswap V2
		WrappedNative: hex("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: NativeSentinel, Decimals: 18, Native: true},
			{Symbol: "WETH", Name: "Wrapped Ether", Address: hex("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18},
			{Symbol: "USDC", Name: "USD Coin", Address: hex("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6},
			{Symbol: "USDT", Name: "Tether USD", Address: hex("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6},
			{Symbol: "DAI", Name: "Dai Stablecoin", Address: hex("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Decimals: 18},
			{Symbol: "WBTC", Name: "Wrapped BTC", Address: hex("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), Decimals: 8},
			{Symbol: "UNI", Name: "Uniswap", Address: hex("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"), Decimals: 18},
			{Symbol: "LINK", Name: "Chainlink", Address: hex("0x514910771AF9Ca656af840dff83E8264EcF986CA"), Decimals: 18},
		},
	},
	56: {
		ID:            56,
		Name:          "BNB Chain",
		Explorer:      "https://bscscan.com",
		Router:        hex("0x10ED43C718714eb63d5aA57B78B54704E256024E"), // PancakeSwap V2
		WrappedNative: hex("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),
		Tokens: []Token{
			{Symbol: "BNB", Name: "BNB", Address: NativeSentinel, Decimals: 18, Native: true},
			{Symbol: "WBNB", Name: "Wrapped BNB", Address: hex("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), Decimals: 18},
			{Symbol: "BUSD", Name: "Binance USD", Address: hex("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56"), Decimals: 18},
			{Symbol: "USDT", Name: "Tether USD", Address: hex("0x55d398326f99059fF775485246999027B3197955"), Decimals: 18},
			{Symbol: "CAKE", Name: "PancakeSwap", Address: hex("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"), Decimals: 18},
		},
	},
	137: {
		ID:            137,
		Name:          "Polygon",
		Explorer:      "https://polygonscan.com",
		Router:        hex("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"), // QuickSwap
		WrappedNative: hex("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"),
		Tokens: []Token{
			{Symbol: "MATIC", Name: "Polygon", Address: NativeSentinel, Decimals: 18, Native: true},
			{Symbol: "WMATIC", Name: "Wrapped MATIC", Address: hex("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"), Decimals: 18},
			{Symbol: "USDC", Name: "USD Coin", Address: hex("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"), Decimals: 6},
			{Symbol: "USDT", Name: "Tether USD", Address: hex("0xc2132D05D31c914a87C6611C10748AEb04B58e8F"), Decimals: 6},
			{Symbol: "WETH", Name: "Wrapped Ether", Address: hex("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"), Decimals: 18},
		},
	},
	42161: {
		ID:            42161,
		Name:          "Arbitrum",
		Explorer:      "https://arbiscan.io",
		Router:        hex("0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506"), // SushiSwap
		WrappedNative: hex("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: NativeSentinel, Decimals: 18, Native: true},
			{Symbol: "WETH", Name: "Wrapped Ether", Address: hex("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"), Decimals: 18},
			{Symbol: "USDC", Name: "USD Coin", Address: hex("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"), Decimals: 6},
			{Symbol: "ARB", Name: "Arbitrum", Address: hex("0x912CE59144191C1204E64559FE8253a0e49E6548"), Decimals: 18},
		},
	},
	8453: {
		ID:            8453,
		Name:          "Base",
		Explorer:      "https://basescan.org",
		Router:        hex("0x2626664c2603336E57B271c5C0b26F421741e481"), // BaseSwap
		WrappedNative: hex("0x4200000000000000000000000000000000000006"),
		Tokens: []Token{
			{Symbol: "ETH", Name: "Ethereum", Address: NativeSentinel, Decimals: 18, Native: true},
			{Symbol: "WETH", Name: "Wrapped Ether", Address: hex("0x4200000000000000000000000000000000000006"), Decimals: 18},
			{Symbol: "USDC", Name: "USD Coin", Address: hex("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Decimals: 6},
		},
	},
}
