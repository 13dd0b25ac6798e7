package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/chainengine/internal/model"
)

// OpenDB opens and pings a Postgres connection pool.
func OpenDB(dbURI string, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("database connection established successfully")
	return db, nil
}

// PostgresStore implements ChainStore against the chains, chain_orders
// and chain_events tables.
type PostgresStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewPostgresStore(db *sql.DB, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) SaveChain(ctx context.Context, chain model.Chain) error {
	query := `
		INSERT INTO chains (chain_id, symbol, direction, base_lot, current_level, max_level,
			total_profit, status, created_at, updated_at, schedule, metadata, active_order_ids)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (chain_id) DO UPDATE SET
			current_level = EXCLUDED.current_level,
			total_profit = EXCLUDED.total_profit,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			active_order_ids = EXCLUDED.active_order_ids
	`
	scheduleJSON, err := marshalSchedule(chain.Schedule)
	if err != nil {
		return fmt.Errorf("marshalling schedule for chain %s: %w", chain.ChainID, err)
	}
	metadataJSON, err := marshalMetadata(chain.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata for chain %s: %w", chain.ChainID, err)
	}

	_, err = s.db.ExecContext(ctx, query,
		chain.ChainID, chain.Symbol, string(chain.Direction), newDecimal(chain.BaseLot),
		chain.CurrentLevel, chain.MaxLevel, newDecimal(chain.TotalProfitBooked), string(chain.Status),
		chain.CreatedAt, chain.UpdatedAt, scheduleJSON, metadataJSON, joinIDs(chain.ActiveOrderIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to save chain %s: %w", chain.ChainID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"chain_id": chain.ChainID,
		"level":    chain.CurrentLevel,
		"status":   chain.Status,
	}).Info("saved chain")
	return nil
}

func (s *PostgresStore) SaveOrder(ctx context.Context, order model.ChainOrder) error {
	query := `
		INSERT INTO chain_orders (order_id, chain_id, level, profit_target, sl_reduction, state)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (order_id) DO UPDATE SET state = EXCLUDED.state, level = EXCLUDED.level
	`
	_, err := s.db.ExecContext(ctx, query,
		order.OrderID, order.ChainID, order.Level,
		newDecimal(order.ProfitTargetAtPlacement), newDecimal(order.SLReductionPercent), string(order.State),
	)
	if err != nil {
		return fmt.Errorf("failed to save chain order %s: %w", order.OrderID, err)
	}
	return nil
}

func (s *PostgresStore) AppendEvent(ctx context.Context, event model.ProgressionEvent) error {
	query := `
		INSERT INTO chain_events (chain_id, from_level, to_level, profit_booked, orders_closed, orders_placed, ts)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ChainID, event.FromLevel, event.ToLevel, newDecimal(event.ProfitBooked),
		event.OrdersClosed, event.OrdersPlaced, event.Ts,
	)
	if err != nil {
		return fmt.Errorf("failed to append progression event for chain %s: %w", event.ChainID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"chain_id":   event.ChainID,
		"from_level": event.FromLevel,
		"to_level":   event.ToLevel,
		"profit":     event.ProfitBooked,
	}).Info("recorded progression event")
	return nil
}

func (s *PostgresStore) LoadActiveChains(ctx context.Context) ([]model.Chain, error) {
	query := `
		SELECT chain_id, symbol, direction, base_lot, current_level, max_level,
			total_profit, status, created_at, updated_at, schedule, metadata, active_order_ids
		FROM chains WHERE status = 'ACTIVE'
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active chains: %w", err)
	}
	defer rows.Close()

	var out []model.Chain
	for rows.Next() {
		var c model.Chain
		var direction, status string
		var baseLot, totalProfit decimalValue
		var scheduleJSON, metadataJSON []byte
		var activeIDs string
		if err := rows.Scan(&c.ChainID, &c.Symbol, &direction, &baseLot, &c.CurrentLevel, &c.MaxLevel,
			&totalProfit, &status, &c.CreatedAt, &c.UpdatedAt, &scheduleJSON, &metadataJSON, &activeIDs); err != nil {
			s.logger.WithError(err).Error("failed to scan chain row")
			continue
		}
		c.Direction = model.Direction(direction)
		c.Status = model.Status(status)
		c.BaseLot = baseLot.Float()
		c.TotalProfitBooked = totalProfit.Float()
		c.ActiveOrderIDs = splitIDs(activeIDs)

		schedule, err := unmarshalSchedule(scheduleJSON)
		if err != nil {
			s.logger.WithError(err).WithField("chain_id", c.ChainID).Error("failed to unmarshal schedule, skipping chain")
			continue
		}
		c.Schedule = schedule

		metadata, err := unmarshalMetadata(metadataJSON)
		if err != nil {
			s.logger.WithError(err).WithField("chain_id", c.ChainID).Error("failed to unmarshal metadata, skipping chain")
			continue
		}
		c.Metadata = metadata

		out = append(out, c)
	}
	return out, nil
}

func (s *PostgresStore) LoadOrdersForChain(ctx context.Context, chainID string, state model.OrderState) ([]model.ChainOrder, error) {
	query := `
		SELECT order_id, chain_id, level, profit_target, sl_reduction, state
		FROM chain_orders WHERE chain_id = $1 AND state = $2
	`
	rows, err := s.db.QueryContext(ctx, query, chainID, string(state))
	if err != nil {
		return nil, fmt.Errorf("failed to query chain orders for %s: %w", chainID, err)
	}
	defer rows.Close()

	var out []model.ChainOrder
	for rows.Next() {
		var o model.ChainOrder
		var state string
		var target, reduction decimalValue
		if err := rows.Scan(&o.OrderID, &o.ChainID, &o.Level, &target, &reduction, &state); err != nil {
			s.logger.WithError(err).Error("failed to scan chain order row")
			continue
		}
		o.State = model.OrderState(state)
		o.ProfitTargetAtPlacement = target.Float()
		o.SLReductionPercent = reduction.Float()
		out = append(out, o)
	}
	return out, nil
}
