package repository

import "fmt"

// Schema returns the DDL of the tables written by CHSignalStore. Signals are
// replaced per (ticker, date) by the most recent run.
func Schema(signalsTable, runsTable string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_id String,
    version UInt64,
    ticker LowCardinality(String),
    date Date,
    close Float64,
    volume Float64,
    stock_return Float64,
    market_return Nullable(Float64),
    high_52w Float64,
    vol_avg_50 Float64,
    ad_value Float64,
    ad_ratio Float64,
    c Bool,
    a Bool,
    n Bool,
    s Bool,
    l Bool,
    i Bool,
    canslim_all Bool,
    fundamentals_end_date Nullable(Date)
) ENGINE = ReplacingMergeTree(version)
ORDER BY (ticker, date)`, signalsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_id String,
    started_at DateTime64(3),
    finished_at DateTime64(3),
    from_date Date,
    to_date Date,
    criteria String,
    manifest String,
    row_count UInt64,
    counts String,
    hit_count UInt64,
    errors String
) ENGINE = MergeTree
ORDER BY (started_at, run_id)`, runsTable),
	}
}
