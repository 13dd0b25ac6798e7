// Package model holds the durable and in-memory shapes shared by the
// chain engine, its store backends, and the risk subsystem.
package model

import (
	"time"

	"github.com/paaavkata/chainengine/internal/chainerr"
)

// Status is a chain's lifecycle state.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusStopped   Status = "STOPPED"
	StatusFaulted   Status = "FAULTED"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusFaulted
}

// Direction is the seed trade's side; it never changes for a chain's life.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// OrderState is a ChainOrder's lifecycle state.
type OrderState string

const (
	OrderOpen         OrderState = "OPEN"
	OrderClosedTarget OrderState = "CLOSED_TARGET"
	OrderClosedStop   OrderState = "CLOSED_STOP"
	OrderClosedManual OrderState = "CLOSED_MANUAL"
)

// Volatility classes a symbol's SL pip estimate.
type Volatility string

const (
	VolatilityLow    Volatility = "LOW"
	VolatilityMedium Volatility = "MEDIUM"
	VolatilityHigh   Volatility = "HIGH"
)

// OrderTypeProfitTrail is the only seed order kind CreateChain accepts.
const OrderTypeProfitTrail = "PROFIT_TRAIL"

// Schedule is the immutable triple of vectors captured at chain
// creation. It is persisted with the chain row and reloaded from there
// on recovery, never from live config, so a config change between
// restarts cannot rewrite an in-flight chain's targets.
type Schedule struct {
	ProfitTargets []float64 `json:"profit_targets"`
	Multipliers   []int     `json:"multipliers"`
	SLReductions  []float64 `json:"sl_reductions"`
}

// Validate checks the schedule vectors: equal non-zero length, strictly
// positive targets and multipliers, reductions in [0,100).
func (s Schedule) Validate() error {
	n := len(s.ProfitTargets)
	if n == 0 || len(s.Multipliers) != n || len(s.SLReductions) != n {
		return chainerr.New(chainerr.ConfigInvalid, "schedule vectors must be non-empty and equal length")
	}
	for i := 0; i < n; i++ {
		if s.ProfitTargets[i] <= 0 {
			return chainerr.New(chainerr.ConfigInvalid, "profit_targets[%d] must be strictly positive", i)
		}
		if s.Multipliers[i] <= 0 {
			return chainerr.New(chainerr.ConfigInvalid, "multipliers[%d] must be strictly positive", i)
		}
		if s.SLReductions[i] < 0 || s.SLReductions[i] >= 100 {
			return chainerr.New(chainerr.ConfigInvalid, "sl_reductions[%d] must be in [0,100)", i)
		}
	}
	return nil
}

// MaxLevel is the highest valid index into the schedule.
func (s Schedule) MaxLevel() int {
	return len(s.ProfitTargets) - 1
}

// Metadata is captured from the seed trade at chain creation.
type Metadata struct {
	Strategy      string  `json:"strategy"`
	OriginalEntry float64 `json:"original_entry"`
	OriginalSL    float64 `json:"original_sl"`
	OriginalTP    float64 `json:"original_tp"`
}

// Chain is the in-memory and durable representation of one profit-trail
// pyramid.
type Chain struct {
	ChainID           string
	Symbol            string
	Direction         Direction
	BaseLot           float64
	CurrentLevel      int
	MaxLevel          int
	TotalProfitBooked float64
	ActiveOrderIDs    []string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Schedule          Schedule
	Metadata          Metadata
}

// Clone returns a deep-enough copy safe to hand outside the chain's lock.
func (c *Chain) Clone() Chain {
	cp := *c
	cp.ActiveOrderIDs = append([]string(nil), c.ActiveOrderIDs...)
	return cp
}

// ChainOrder is a durable row per placed order in a chain.
type ChainOrder struct {
	OrderID                 string
	ChainID                 string
	Level                   int
	ProfitTargetAtPlacement float64
	SLReductionPercent      float64
	State                   OrderState
}

// ProgressionEvent is an append-only record of one level transition.
type ProgressionEvent struct {
	ChainID      string
	FromLevel    int
	ToLevel      int
	ProfitBooked float64
	OrdersClosed int
	OrdersPlaced int
	Ts           time.Time
}

// SeedTrade is the external signal that creates a chain.
type SeedTrade struct {
	OrderID    string
	Symbol     string
	Direction  Direction
	LotSize    float64
	OrderType  string
	Strategy   string
	Entry      float64
	StopLoss   float64
	TakeProfit float64

	// ChainID and ProfitLevel are stamped onto the seed once its chain
	// is created, so the caller's trade record carries the membership.
	ChainID     string
	ProfitLevel int
}

// OpenTrade is a live broker position as reported by the trading facade;
// it is the bridge between broker truth and chain-tagged bookkeeping.
type OpenTrade struct {
	OrderID    string
	ChainID    string
	Level      int
	Symbol     string
	Direction  Direction
	EntryPrice float64
	LotSize    float64
	State      OrderState
}
