package analysis

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/pkg/models"
)

const (
	tokAddr  = "TokenAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	tok2Addr = "TokenBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	usdcAddr = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	wsolAddr = "So11111111111111111111111111111111111111112"

	testWallet = "WaLLetTest1111111111111111111111111111111111"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// side construit un côté de swap; qty négatif = sortie, positif = entrée
func side(addr, symbol, qty, price string) models.SwapSide {
	return models.SwapSide{
		TokenAddress:   addr,
		TokenSymbol:    symbol,
		UIChangeAmount: dec(qty),
		Price:          dec(price),
	}
}

func sideWithNearest(addr, symbol, qty, price, nearest string) models.SwapSide {
	s := side(addr, symbol, qty, price)
	n := dec(nearest)
	s.NearestPrice = &n
	return s
}

func swap(tx string, blockTime int64, quote, base models.SwapSide) models.RawSwap {
	return models.RawSwap{
		TxHash:    tx,
		BlockTime: blockTime,
		QuoteSide: quote,
		BaseSide:  base,
	}
}

// buyTok construit un swap USDC -> TOK standard
func buyTok(tx string, blockTime int64, usdcOut, tokIn, tokPrice string) models.RawSwap {
	return swap(tx, blockTime,
		side(usdcAddr, "USDC", usdcOut, "1"),
		side(tokAddr, "TOK", tokIn, tokPrice),
	)
}

// sellTok construit un swap TOK -> USDC standard
func sellTok(tx string, blockTime int64, tokOut, tokPrice, usdcIn string) models.RawSwap {
	return swap(tx, blockTime,
		side(tokAddr, "TOK", tokOut, tokPrice),
		side(usdcAddr, "USDC", usdcIn, "1"),
	)
}
