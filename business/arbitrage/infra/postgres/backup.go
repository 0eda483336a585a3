// Package postgres persists pipeline state for recovery and reporting.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS opportunities (
	id                TEXT PRIMARY KEY,
	token_pair        TEXT NOT NULL,
	buy_dex           TEXT NOT NULL,
	sell_dex          TEXT NOT NULL,
	buy_price         NUMERIC NOT NULL,
	sell_price        NUMERIC NOT NULL,
	profit_percentage NUMERIC NOT NULL,
	net_profit        NUMERIC NOT NULL,
	risk              TEXT NOT NULL,
	status            TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	expires_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS executions (
	id             TEXT PRIMARY KEY,
	opportunity_id TEXT NOT NULL,
	signature      TEXT,
	status         TEXT NOT NULL,
	gas_used       NUMERIC NOT NULL,
	gas_price      NUMERIC NOT NULL,
	total_cost     NUMERIC NOT NULL,
	actual_profit  NUMERIC NOT NULL,
	error_message  TEXT,
	executed_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS strategies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	active     BOOLEAN NOT NULL,
	parameters JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities (status);
CREATE INDEX IF NOT EXISTS idx_executions_opportunity ON executions (opportunity_id);
`

// Backup writes pipeline state to Postgres.
type Backup struct {
	pool *pgxpool.Pool
	log  logger.LoggerInterface
}

// New connects to Postgres and ensures the schema exists.
func New(ctx context.Context, databaseURL string, log logger.LoggerInterface) (*Backup, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperror.New(apperror.CodeDatabaseError,
			apperror.WithContext("connect"), apperror.WithCause(err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.New(apperror.CodeDatabaseError,
			apperror.WithContext("ping"), apperror.WithCause(err))
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, apperror.New(apperror.CodeDatabaseError,
			apperror.WithContext("init schema"), apperror.WithCause(err))
	}

	log.Info(ctx, "postgres backup store ready")
	return &Backup{pool: pool, log: log}, nil
}

// SaveOpportunity upserts an opportunity row.
func (b *Backup) SaveOpportunity(ctx context.Context, o *domain.Opportunity) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO opportunities
			(id, token_pair, buy_dex, sell_dex, buy_price, sell_price,
			 profit_percentage, net_profit, risk, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			net_profit = EXCLUDED.net_profit,
			status     = EXCLUDED.status`,
		o.ID, o.TokenPair.Key(), string(o.BuyPool.Dex), string(o.SellPool.Dex),
		o.BuyPrice, o.SellPrice, o.ProfitPercentage, o.NetProfit,
		o.Risk.String(), string(o.Status), o.Timestamp, o.ExpiresAt,
	)
	if err != nil {
		return apperror.New(apperror.CodeDatabaseError,
			apperror.WithContext("save opportunity"), apperror.WithCause(err))
	}
	return nil
}

// UpdateOpportunityStatus updates one opportunity's status.
func (b *Backup) UpdateOpportunityStatus(ctx context.Context, id string, status domain.OpportunityStatus) error {
	_, err := b.pool.Exec(ctx,
		`UPDATE opportunities SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return apperror.New(apperror.CodeDatabaseError,
			apperror.WithContext("update opportunity status"), apperror.WithCause(err))
	}
	return nil
}

// SaveExecution upserts an execution row.
func (b *Backup) SaveExecution(ctx context.Context, e *domain.Execution) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO executions
			(id, opportunity_id, signature, status, gas_used, gas_price,
			 total_cost, actual_profit, error_message, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			signature     = EXCLUDED.signature,
			status        = EXCLUDED.status,
			gas_used      = EXCLUDED.gas_used,
			gas_price     = EXCLUDED.gas_price,
			total_cost    = EXCLUDED.total_cost,
			actual_profit = EXCLUDED.actual_profit,
			error_message = EXCLUDED.error_message`,
		e.ID, e.Opportunity.ID, e.TransactionSignature, string(e.Status),
		e.GasUsed, e.GasPrice, e.TotalCost, e.ActualProfit,
		e.ErrorMessage, e.ExecutionTime,
	)
	if err != nil {
		return apperror.New(apperror.CodeDatabaseError,
			apperror.WithContext("save execution"), apperror.WithCause(err))
	}
	return nil
}

// SaveStrategy upserts a strategy row with its parameters as JSON.
func (b *Backup) SaveStrategy(ctx context.Context, s domain.Strategy) error {
	params, err := json.Marshal(s.Parameters)
	if err != nil {
		return apperror.New(apperror.CodeInvalidFormat,
			apperror.WithContext("strategy parameters"), apperror.WithCause(err))
	}

	_, err = b.pool.Exec(ctx, `
		INSERT INTO strategies (id, name, active, parameters, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name       = EXCLUDED.name,
			active     = EXCLUDED.active,
			parameters = EXCLUDED.parameters,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.Name, s.Active, params, s.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return apperror.New(apperror.CodeDatabaseError,
			apperror.WithContext("save strategy"), apperror.WithCause(err))
	}
	return nil
}

// DeleteStrategy removes a strategy row.
func (b *Backup) DeleteStrategy(ctx context.Context, id string) error {
	_, err := b.pool.Exec(ctx, `DELETE FROM strategies WHERE id = $1`, id)
	if err != nil {
		return apperror.New(apperror.CodeDatabaseError,
			apperror.WithContext("delete strategy"), apperror.WithCause(err))
	}
	return nil
}

// Close releases the connection pool.
func (b *Backup) Close() {
	b.pool.Close()
}
