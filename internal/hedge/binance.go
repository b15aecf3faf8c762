package hedge

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// BinanceVenue places hedge orders on Binance USDⓈ-M perpetual futures.
type BinanceVenue struct {
	client *futures.Client
	places int32
	logger *zap.Logger
}

func NewBinanceVenue(apiKey, secretKey string, testnet bool, logger *zap.Logger) *BinanceVenue {
	if logger == nil {
		logger = zap.NewNop()
	}
	futures.UseTestnet = testnet
	return &BinanceVenue{
		client: futures.NewClient(apiKey, secretKey),
		places: DefaultPlaces,
		logger: logger,
	}
}

// GetPosition sums positionAmt across position sides for the symbol.
func (v *BinanceVenue) GetPosition(ctx context.Context, instrument string) (decimal.Decimal, error) {
	risks, err := v.client.NewGetPositionRiskService().Symbol(instrument).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get position risk %s: %w", instrument, err)
	}
	total := decimal.Zero
	for _, risk := range risks {
		if risk.Symbol != instrument {
			continue
		}
		amt, err := decimal.NewFromString(risk.PositionAmt)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse position amount %q: %w", risk.PositionAmt, err)
		}
		total = total.Add(amt)
	}
	return total, nil
}

func (v *BinanceVenue) SetLeverage(ctx context.Context, instrument string, leverage int) error {
	res, err := v.client.NewChangeLeverageService().Symbol(instrument).Leverage(leverage).Do(ctx)
	if err != nil {
		return fmt.Errorf("set leverage %s: %w", instrument, err)
	}
	v.logger.Debug("leverage set", zap.String("symbol", res.Symbol), zap.Int("leverage", res.Leverage))
	return nil
}

func (v *BinanceVenue) SubmitMarketOrder(ctx context.Context, instrument string, side model.OrderSide, size decimal.Decimal) (string, error) {
	var sideType futures.SideType
	switch side {
	case model.SideBuy:
		sideType = futures.SideTypeBuy
	case model.SideSell:
		sideType = futures.SideTypeSell
	default:
		return "", fmt.Errorf("unknown order side %q", side)
	}
	quantity := size.Round(v.places)
	if !quantity.IsPositive() {
		return "", fmt.Errorf("order size %s rounds to zero", size)
	}
	res, err := v.client.NewCreateOrderService().
		Symbol(instrument).
		Side(sideType).
		Type(futures.OrderTypeMarket).
		Quantity(quantity.StringFixed(v.places)).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("create order %s %s %s: %w", instrument, side, quantity, err)
	}
	v.logger.Info("hedge order placed",
		zap.String("symbol", instrument),
		zap.String("side", string(side)),
		zap.String("quantity", quantity.StringFixed(v.places)),
		zap.Int64("order_id", res.OrderID),
		zap.String("status", string(res.Status)),
	)
	return strconv.FormatInt(res.OrderID, 10), nil
}
