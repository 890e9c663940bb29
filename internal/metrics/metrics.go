// Package metrics объявляет счётчики Prometheus планировщика доставки.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeliveryCyclesTotal — количество завершённых циклов планировщика.
	DeliveryCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microlearn_delivery_cycles_total",
		Help: "Number of completed delivery cycles.",
	})

	// DeliveriesSentTotal — количество успешно отправленных доставок.
	DeliveriesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microlearn_deliveries_sent_total",
		Help: "Number of content deliveries dispatched successfully.",
	})

	// DeliveriesFailedTotal — количество неудачных попыток отправки.
	DeliveriesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microlearn_deliveries_failed_total",
		Help: "Number of content delivery dispatch failures.",
	})
)
