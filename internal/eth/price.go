package eth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"tradeScope/internal/model"
	"tradeScope/internal/token"
	"tradeScope/internal/units"
)

// GetTokenPrice derives a token's price from the best swap quote for one
// whole token unit. Supported quote currencies are ETH and USD; the USD
// leg goes through the configured stable asset.
func (c *Client) GetTokenPrice(ctx context.Context, tokenAddress, symbol, quoteCurrency string) (model.TokenPrice, error) {
	currency := strings.ToUpper(quoteCurrency)

	var address common.Address
	switch {
	case tokenAddress != "":
		parsed, err := parseAddress(tokenAddress)
		if err != nil {
			return model.TokenPrice{}, err
		}
		address = parsed
	case symbol != "":
		resolved, ok := c.registry.Resolve(symbol)
		if !ok {
			return model.TokenPrice{}, fmt.Errorf("unknown token symbol: %s", symbol)
		}
		address = resolved
	default:
		return model.TokenPrice{}, fmt.Errorf("token_address or symbol is required")
	}

	info, err := token.Fetch(ctx, c.backend, address)
	if err != nil {
		return model.TokenPrice{}, err
	}

	var price decimal.Decimal
	switch currency {
	case "ETH":
		price, err = c.priceInETH(ctx, address, info)
	case "USD":
		price, err = c.priceInUSD(ctx, address, info)
	default:
		return model.TokenPrice{}, fmt.Errorf("unsupported quote currency: %s", quoteCurrency)
	}
	if err != nil {
		return model.TokenPrice{}, err
	}

	return model.TokenPrice{
		TokenAddress:  address.Hex(),
		Symbol:        info.Symbol,
		Price:         price,
		QuoteCurrency: currency,
		Timestamp:     c.now().Unix(),
	}, nil
}

// priceInETH quotes one whole token unit into the wrapped native token.
// The wrapped native token itself is priced at exactly one, with no quote
// query.
func (c *Client) priceInETH(ctx context.Context, address common.Address, info token.Info) (decimal.Decimal, error) {
	if address == c.cfg.Dex.WrappedNative {
		return decimal.NewFromInt(1), nil
	}

	amountIn, err := units.FromDecimal(decimal.NewFromInt(1), info.Decimals)
	if err != nil {
		return decimal.Decimal{}, err
	}
	quote, err := c.quoter.BestQuote(ctx, address, info.Decimals, c.cfg.Dex.WrappedNative, 18, amountIn)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return units.ToDecimal(quote.AmountOut, 18)
}

func (c *Client) priceInUSD(ctx context.Context, address common.Address, info token.Info) (decimal.Decimal, error) {
	priceETH, err := c.priceInETH(ctx, address, info)
	if err != nil {
		return decimal.Decimal{}, err
	}
	ethUSD, err := c.nativePriceUSD(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return priceETH.Mul(ethUSD), nil
}

// nativePriceUSD quotes one whole wrapped-native unit into the stable
// asset.
func (c *Client) nativePriceUSD(ctx context.Context) (decimal.Decimal, error) {
	amountIn, err := units.FromDecimal(decimal.NewFromInt(1), 18)
	if err != nil {
		return decimal.Decimal{}, err
	}
	quote, err := c.quoter.BestQuote(ctx, c.cfg.Dex.WrappedNative, 18, c.cfg.Stable, c.cfg.stableDecimals(), amountIn)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return units.ToDecimal(quote.AmountOut, c.cfg.stableDecimals())
}
