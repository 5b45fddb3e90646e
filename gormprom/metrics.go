// Package gormprom records gorm statement metrics with Prometheus by
// registering before/after callbacks on a *gorm.DB.
package gormprom

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	_startedAtKey = "gormprom:started_at"
	_callbackName = "gormprom"
)

// Metrics contains statement metrics labelled by operation and table.
type Metrics struct {
	// Statements counts executed statements.
	Statements *prometheus.CounterVec
	// Errors counts failed statements. gorm.ErrRecordNotFound is not a failure.
	Errors *prometheus.CounterVec
	// Duration observes statement duration in seconds.
	Duration *prometheus.HistogramVec
	// RowsAffected observes rows returned or affected per statement.
	RowsAffected *prometheus.HistogramVec
}

// NewMetrics creates metrics under namespace and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	labels := []string{"operation", "table"}

	m := &Metrics{
		Statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "statements_total",
			Help:      "Total number of executed statements.",
		}, labels),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "statement_errors_total",
			Help:      "Total number of failed statements.",
		}, labels),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "statement_duration_seconds",
			Help:      "Statement duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
		RowsAffected: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "statement_rows",
			Help:      "Rows returned or affected per statement.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, labels),
	}

	for _, c := range []prometheus.Collector{m.Statements, m.Errors, m.Duration, m.RowsAffected} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register gorm metric: %w", err)
		}
	}

	return m, nil
}

// Instrument registers callbacks recording m for every statement run
// through db.
func Instrument(db *gorm.DB, m *Metrics) error {
	if db == nil || m == nil {
		return errors.New("gormprom: db and metrics are required")
	}

	cb := db.Callback()
	registrations := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, r := range registrations {
		if err := r.before(_callbackName+":before_"+r.op, before); err != nil {
			return fmt.Errorf("failed to register %s callback: %w", r.op, err)
		}
		if err := r.after(_callbackName+":after_"+r.op, m.after(r.op)); err != nil {
			return fmt.Errorf("failed to register %s callback: %w", r.op, err)
		}
	}

	return nil
}

func before(db *gorm.DB) {
	db.InstanceSet(_startedAtKey, time.Now())
}

func (m *Metrics) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		m.Statements.WithLabelValues(op, table).Inc()
		m.RowsAffected.WithLabelValues(op, table).Observe(float64(db.Statement.RowsAffected))

		if v, ok := db.InstanceGet(_startedAtKey); ok {
			if startedAt, ok := v.(time.Time); ok {
				m.Duration.WithLabelValues(op, table).Observe(time.Since(startedAt).Seconds())
			}
		}

		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			m.Errors.WithLabelValues(op, table).Inc()
		}
	}
}
