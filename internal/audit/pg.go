package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/peergate/internal/observability/logger"
)

// PGLogger escribe eventos en la tabla audit_log.
type PGLogger struct {
	pool *pgxpool.Pool
}

func NewPG(pool *pgxpool.Pool) *PGLogger {
	return &PGLogger{pool: pool}
}

func (l *PGLogger) Log(ctx context.Context, ev Event) {
	if ev.Status == "" {
		ev.Status = "success"
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO audit_log (log_id, actor, action, status, message)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), ev.Actor, ev.Action, ev.Status, ev.Message,
	)
	if err != nil {
		logger.Named("audit").Warn("audit write failed",
			logger.Action(ev.Action),
			logger.Err(err),
		)
	}
}

// Recent retorna los últimos n eventos, más nuevos primero.
func (l *PGLogger) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		n = 200
	}
	rows, err := l.pool.Query(ctx, `
		SELECT actor, action, status, message FROM audit_log
		 ORDER BY log_date DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Actor, &ev.Action, &ev.Status, &ev.Message); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
