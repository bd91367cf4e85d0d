package store

import "time"

// PlanRecord is a persisted strategy. Payload holds the JSON encoded plan.
type PlanRecord struct {
	StrategyID string
	Payload    []byte
	CreatedAt  time.Time
}
