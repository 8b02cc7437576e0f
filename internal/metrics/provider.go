// Package metrics instruments storage providers with Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maauso/storage-providers/internal/storage"
)

const namespace = "fileprovider"

// Operation status label values.
const (
	statusOK       = "ok"
	statusMiss     = "miss"
	statusError    = "error"
	statusCanceled = "canceled"
)

// Collectors holds the storage metrics. One Collectors is shared by every
// provider it instruments.
type Collectors struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      *prometheus.CounterVec
}

// NewCollectors creates and registers the storage metrics on reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"backend", "operation", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "bytes_total",
				Help:      "Bytes read from and written to storage",
			},
			[]string{"backend", "direction"},
		),
	}
	reg.MustRegister(c.operations, c.duration, c.bytes)
	return c
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Wrap returns p instrumented under the given backend label.
func (c *Collectors) Wrap(p storage.Provider, backend string) storage.Provider {
	return &instrumented{next: p, backend: backend, c: c}
}

// instrumented decorates a storage.Provider with metrics.
type instrumented struct {
	next    storage.Provider
	backend string
	c       *Collectors
}

func (i *instrumented) IsFile(ctx context.Context, path string) (bool, error) {
	start := time.Now()
	exists, err := i.next.IsFile(ctx, path)
	status := statusFor(err)
	if err == nil && !exists {
		status = statusMiss
	}
	i.observe("is_file", status, start)
	return exists, err
}

func (i *instrumented) GetFile(ctx context.Context, path string, opts ...storage.Option) ([]byte, error) {
	start := time.Now()
	data, err := i.next.GetFile(ctx, path, opts...)
	i.observe("get_file", statusFor(err), start)
	if err == nil {
		i.c.bytes.WithLabelValues(i.backend, "read").Add(float64(len(data)))
	}
	return data, err
}

func (i *instrumented) SaveFile(ctx context.Context, contents io.Reader, path string, opts ...storage.Option) (string, error) {
	start := time.Now()
	cr := &countingReader{r: contents}
	written, err := i.next.SaveFile(ctx, cr, path, opts...)
	i.observe("save_file", statusFor(err), start)
	if err == nil {
		i.c.bytes.WithLabelValues(i.backend, "write").Add(float64(cr.n))
	}
	return written, err
}

func (i *instrumented) DeleteFile(ctx context.Context, path string) (bool, error) {
	start := time.Now()
	deleted, err := i.next.DeleteFile(ctx, path)
	status := statusFor(err)
	if err == nil && !deleted {
		status = statusMiss
	}
	i.observe("delete_file", status, start)
	return deleted, err
}

func (i *instrumented) observe(op, status string, start time.Time) {
	i.c.operations.WithLabelValues(i.backend, op, status).Inc()
	i.c.duration.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
}

func statusFor(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return statusCanceled
	default:
		return statusError
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
