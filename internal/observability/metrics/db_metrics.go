package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "blanks_available",
			Help: "Blank forms currently available for reservation",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM waybill_blanks WHERE status = 'available'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "blanks_reserved",
			Help: "Blank forms currently reserved by draft or submitted waybills",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM waybill_blanks WHERE status = 'reserved'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "documents_draft",
			Help: "Waybills currently in DRAFT",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM waybills WHERE status = 'DRAFT'")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
