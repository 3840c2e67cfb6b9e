package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordCounter reports the number of records per store.
type RecordCounter interface {
	Counts(ctx context.Context) (map[string]int64, error)
}

// Collector reads record counts from storage on every scrape.
type Collector struct {
	source  RecordCounter
	timeout time.Duration

	records *prometheus.Desc
	up      *prometheus.Desc
}

// NewCollector creates a collector over source.
func NewCollector(source RecordCounter) *Collector {
	return &Collector{
		source:  source,
		timeout: 5 * time.Second,
		records: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "records"),
			"Number of stored records per store.",
			[]string{"store"}, nil,
		),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "up"),
			"Whether the last storage read for metrics succeeded.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.records
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	counts, err := c.source.Counts(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	for store, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.records, prometheus.GaugeValue, float64(n), store)
	}
}

// RegisterCollector adds c to the registry.
func (r *Registry) RegisterCollector(c prometheus.Collector) error {
	return r.reg.Register(c)
}
