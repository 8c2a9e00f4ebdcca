package transactions

import (
	"database/sql"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fastprodman/wagerledger/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct {
	db     *sql.DB
	newRef func() string
}

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db, newRef: NewReference}
}

var (
	refEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	refEntropyMu sync.Mutex
)

// NewReference returns a lexicographically sortable ULID.
func NewReference() string {
	refEntropyMu.Lock()
	defer refEntropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), refEntropy).String()
}
