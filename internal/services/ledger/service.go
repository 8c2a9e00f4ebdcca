package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/fastprodman/wagerledger/internal/events"
	"github.com/fastprodman/wagerledger/internal/metrics"
	"github.com/fastprodman/wagerledger/internal/repos/activity"
	pgactivity "github.com/fastprodman/wagerledger/internal/repos/activity/postgres"
	"github.com/fastprodman/wagerledger/internal/repos/balances"
	pgbalances "github.com/fastprodman/wagerledger/internal/repos/balances/postgres"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	pgbets "github.com/fastprodman/wagerledger/internal/repos/bets/postgres"
	"github.com/fastprodman/wagerledger/internal/repos/games"
	pggames "github.com/fastprodman/wagerledger/internal/repos/games/postgres"
	"github.com/fastprodman/wagerledger/internal/repos/transactions"
	pgtransactions "github.com/fastprodman/wagerledger/internal/repos/transactions/postgres"
)

const publishTimeout = 2 * time.Second

// Publisher receives ledger events after commit.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type Service struct {
	db        *sql.DB
	balances  balances.Balances
	txns      transactions.Transactions
	bets      bets.Bets
	games     games.Games
	activity  activity.Log
	publisher Publisher
	metrics   *metrics.LedgerMetrics
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New wires the PostgreSQL repositories on db. The caller owns db.
func New(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		balances:  pgbalances.New(db),
		txns:      pgtransactions.New(db),
		bets:      pgbets.New(db),
		games:     pggames.New(db),
		activity:  pgactivity.New(db),
		publisher: events.Nop{},
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// fail records a failed operation and returns err unchanged.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	kind := Kind(err)
	s.metrics.IncFailure(op, kind)

	ev := zerolog.Ctx(ctx).Warn()
	if kind == "storage" {
		ev = zerolog.Ctx(ctx).Error()
	}
	ev.Err(err).Str("op", op).Str("kind", kind).Msg("ledger operation failed")

	return err
}

// publish fans out e without letting the caller's cancellation or a
// broker failure reach the already committed result.
func (s *Service) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = s.now().UTC()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.publisher.Publish(pubCtx, e)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", string(e.Type)).Msg("publish ledger event")
	}
}
