package httpapi

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the business counters the API publishes on top of the
// generic otelhttp instrumentation.
type Metrics struct {
	ordersPlaced      metric.Int64Counter
	estimatesComposed metric.Int64Counter
	cartMutations     metric.Int64Counter
}

// NewMetrics registers the API counters on the given meter provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("gkpcrackers.storefront.httpapi")

	ordersPlaced, err := meter.Int64Counter("storefront.orders_placed",
		metric.WithDescription("Orders successfully placed."))
	if err != nil {
		return nil, errors.Wrap(err, "orders_placed counter")
	}
	estimatesComposed, err := meter.Int64Counter("storefront.estimates_composed",
		metric.WithDescription("WhatsApp order estimates composed."))
	if err != nil {
		return nil, errors.Wrap(err, "estimates_composed counter")
	}
	cartMutations, err := meter.Int64Counter("storefront.cart_mutations",
		metric.WithDescription("Cart add, update, remove, and clear operations."))
	if err != nil {
		return nil, errors.Wrap(err, "cart_mutations counter")
	}

	return &Metrics{
		ordersPlaced:      ordersPlaced,
		estimatesComposed: estimatesComposed,
		cartMutations:     cartMutations,
	}, nil
}

// Methods are nil-safe so tests can run without a meter provider.

func (m *Metrics) orderPlaced(ctx context.Context, classification string) {
	if m == nil {
		return
	}
	m.ordersPlaced.Add(ctx, 1,
		metric.WithAttributes(attribute.String("classification", classification)))
}

func (m *Metrics) estimateComposed(ctx context.Context) {
	if m == nil {
		return
	}
	m.estimatesComposed.Add(ctx, 1)
}

func (m *Metrics) cartMutated(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
