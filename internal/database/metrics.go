package database

import (
	"time"

	"github.com/askhub-io/backend/internal/metrics"
	"gorm.io/gorm"
)

const queryStartKey = "metrics:query_start"

// registerMetricsCallbacks hooks query timing into GORM so every
// create/query/update/delete/raw statement is observed in the
// database_query_duration_seconds histogram
func registerMetricsCallbacks(db *gorm.DB) error {
	start := func(db *gorm.DB) {
		db.InstanceSet(queryStartKey, time.Now())
	}

	finish := func(queryType string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			v, ok := db.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			started, ok := v.(time.Time)
			if !ok {
				return
			}
			table := db.Statement.Table
			if table == "" {
				table = "unknown"
			}
			metrics.Get().DatabaseQueryDuration.
				WithLabelValues(queryType, table).
				Observe(time.Since(started).Seconds())
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("metrics:before_create", start); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("metrics:after_create", finish("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("metrics:before_query", start); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("metrics:after_query", finish("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("metrics:before_update", start); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("metrics:after_update", finish("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", start); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", finish("delete")); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("metrics:before_raw", start); err != nil {
		return err
	}
	if err := db.Callback().Raw().After("gorm:raw").Register("metrics:after_raw", finish("raw")); err != nil {
		return err
	}
	return nil
}
