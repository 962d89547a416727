package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB - общий интерфейс pgxpool.Pool, pgx.Tx и pgxmock
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxStarter - DB, умеющий открывать транзакции
type TxStarter interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Clock возвращает текущее время. В postgres хранится микросекундная точность,
// поэтому время усекается заранее - иначе порядок в памяти и в БД может разойтись.
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
