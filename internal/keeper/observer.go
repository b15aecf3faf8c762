package keeper

import (
	"sort"

	"go.uber.org/zap"
)

// Event kinds emitted by the controller.
const (
	EventCycleStart       = "cycle.start"
	EventPositionSelected = "position.selected"
	EventRangeIn          = "range.in"
	EventRangeOut         = "range.out"
	EventFeesAccrued      = "fees.accrued"
	EventLiquidityRemoved = "liquidity.removed"
	EventLiquidityAdded   = "liquidity.added"
	EventFeesCollected    = "fees.collected"
	EventSwapPlanned      = "swap.planned"
	EventSwapExecuted     = "swap.executed"
	EventPositionMinted   = "position.minted"
	EventHedgeOrder       = "hedge.order"
	EventHedgeSkip        = "hedge.skip"
	EventAllowance        = "allowance.approved"
	EventSweepClosed      = "sweep.closed"
	EventInconsistency    = "state.inconsistent"
	EventCycleError       = "cycle.error"
	EventCycleDone        = "cycle.done"
)

// Fields carries event attributes. Amounts are decimal strings in smallest units.
type Fields = map[string]interface{}

// Observer receives controller events synchronously.
type Observer interface {
	OnEvent(kind string, fields Fields)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(kind string, fields Fields)

func (f ObserverFunc) OnEvent(kind string, fields Fields) {
	f(kind, fields)
}

type multiObserver []Observer

func (m multiObserver) OnEvent(kind string, fields Fields) {
	for _, o := range m {
		o.OnEvent(kind, fields)
	}
}

// Observers fans events out to every non-nil observer in order.
func Observers(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// LogObserver writes events to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnEvent(kind string, fields Fields) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zfields := make([]zap.Field, 0, len(keys)+1)
	zfields = append(zfields, zap.String("event", kind))
	for _, k := range keys {
		zfields = append(zfields, zap.Any(k, fields[k]))
	}

	switch kind {
	case EventCycleError:
		o.logger.Error("keeper event", zfields...)
	case EventInconsistency:
		o.logger.Warn("keeper event", zfields...)
	case EventCycleStart, EventRangeIn, EventFeesAccrued, EventHedgeSkip:
		o.logger.Debug("keeper event", zfields...)
	default:
		o.logger.Info("keeper event", zfields...)
	}
}
