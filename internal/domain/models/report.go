package models

import "time"

// DailySummary is the aggregated herd snapshot stored in MongoDB and appended
// to the reporting spreadsheet once a day.
type DailySummary struct {
	Date              time.Time          `bson:"date" json:"date"`
	StatusCounts      map[UnitStatus]int `bson:"status_counts" json:"status_counts"`
	DeathsToday       int                `bson:"deaths_today" json:"deaths_today"`
	HandoversToday    int                `bson:"handovers_today" json:"handovers_today"`
	OpenImportBatches int                `bson:"open_import_batches" json:"open_import_batches"`
	OpenInsurance     int                `bson:"open_insurance" json:"open_insurance"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}
