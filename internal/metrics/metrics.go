// Package metrics exports controller events as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/keeper"
)

const namespace = "lpkeeper"

// Metrics holds the keeper's Prometheus collectors.
type Metrics struct {
	Events         *prometheus.CounterVec
	CycleErrors    *prometheus.CounterVec
	Rebalances     prometheus.Counter
	HedgeOrders    *prometheus.CounterVec
	CurrentTick    prometheus.Gauge
	RangeLower     prometheus.Gauge
	RangeUpper     prometheus.Gauge
	LastCycle      prometheus.Gauge
	LastSuccessful prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Controller events by kind",
		}, []string{"kind"}),
		CycleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "errors_total",
			Help:      "Failed cycles by error kind",
		}, []string{"kind"}),
		Rebalances: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebalances_total",
			Help:      "Positions minted by the controller",
		}),
		HedgeOrders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hedge",
			Name:      "orders_total",
			Help:      "Hedge orders submitted by side",
		}, []string{"side"}),
		CurrentTick: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tick",
			Help:      "Pool tick observed by the last range check",
		}),
		RangeLower: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "tick_lower",
			Help:      "Lower tick of the managed position",
		}),
		RangeUpper: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "tick_upper",
			Help:      "Upper tick of the managed position",
		}),
		LastCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "last_timestamp_seconds",
			Help:      "Unix time of the last finished cycle",
		}),
		LastSuccessful: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful cycle",
		}),
	}
}

// OnEvent implements keeper.Observer.
func (m *Metrics) OnEvent(kind string, fields keeper.Fields) {
	m.Events.WithLabelValues(kind).Inc()

	switch kind {
	case keeper.EventRangeIn, keeper.EventRangeOut:
		setTick(m.CurrentTick, fields["tick"])
		setTick(m.RangeLower, fields["tick_lower"])
		setTick(m.RangeUpper, fields["tick_upper"])
	case keeper.EventPositionMinted:
		m.Rebalances.Inc()
		setTick(m.RangeLower, fields["tick_lower"])
		setTick(m.RangeUpper, fields["tick_upper"])
	case keeper.EventHedgeOrder:
		side, _ := fields["side"].(string)
		m.HedgeOrders.WithLabelValues(side).Inc()
	case keeper.EventCycleError:
		errKind, _ := fields["kind"].(string)
		m.CycleErrors.WithLabelValues(errKind).Inc()
		m.LastCycle.SetToCurrentTime()
	case keeper.EventCycleDone:
		m.LastCycle.SetToCurrentTime()
		m.LastSuccessful.SetToCurrentTime()
	}
}

func setTick(g prometheus.Gauge, v interface{}) {
	if tick, ok := v.(int32); ok {
		g.Set(float64(tick))
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
