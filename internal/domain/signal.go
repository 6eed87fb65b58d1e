package domain

import "time"

// FactorContribution records how much a single score factor added to a
// detector's composite score.
type FactorContribution struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Raw      float64 `json:"raw"`      // factor output in [0,100]
	Weighted float64 `json:"weighted"` // weight * raw
}

// CompositeSignal is one successful detection. Ownership transfers to the
// downstream persistence/alerting collaborator on emission; the scanner keeps
// only a lightweight dedup record.
type CompositeSignal struct {
	ID             string               `json:"id" db:"id"`
	Symbol         string               `json:"symbol" db:"symbol"`
	DetectorType   string               `json:"detector_type" db:"detector_type"`
	Direction      Direction            `json:"direction" db:"direction"`
	AssetClass     AssetClass           `json:"asset_class" db:"asset_class"`
	CompositeScore float64              `json:"composite_score" db:"composite_score"`
	Confidence     float64              `json:"confidence" db:"confidence"`
	StyleScore     float64              `json:"style_score" db:"style_score"`
	RiskReward     float64              `json:"risk_reward" db:"risk_reward"`
	Price          float64              `json:"price" db:"price"`
	Factors        []FactorContribution `json:"factors"`
	BarTimeKey     string               `json:"bar_time_key" db:"bar_time_key"`
	DetectedAt     time.Time            `json:"detected_at" db:"detected_at"`
}

// ScanResult is returned by every scan call, exactly one per call. Either the
// scan was filtered (with a reason naming the failing stage) or one or more
// signals were emitted.
type ScanResult struct {
	Symbol       string    `json:"symbol"`
	ScannedAt    time.Time `json:"scanned_at"`
	Filtered     bool      `json:"filtered"`
	FilterReason string    `json:"filter_reason,omitempty"`

	// DetectionCount is the number of detectors whose gate returned true
	// before thresholding and deduplication, regardless of final emission.
	DetectionCount int `json:"detection_count"`

	// Signals holds every emitted detection for this tick; Signal is the
	// highest-scoring one for callers that only want the headline.
	Signals []*CompositeSignal `json:"signals,omitempty"`
	Signal  *CompositeSignal   `json:"signal,omitempty"`
}
