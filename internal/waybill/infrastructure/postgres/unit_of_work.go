package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleet-waybill/internal/audit"
	blanks "fleet-waybill/internal/blanks/domain"
	blankspg "fleet-waybill/internal/blanks/infrastructure/postgres"
	stock "fleet-waybill/internal/stock/domain"
	stockpg "fleet-waybill/internal/stock/infrastructure/postgres"
	waybill "fleet-waybill/internal/waybill/domain"
)

// UnitOfWork runs lifecycle mutations inside one database transaction.
// Every collaborator handed to the callback is bound to that transaction,
// so a failure anywhere rolls back stock depletion, blank consumption,
// status update and audit append together.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork constructs a unit of work.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Run executes fn within a transaction, committing only when fn returns nil.
func (u *UnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, tx waybill.Tx) error) error {
	if u == nil || u.db == nil {
		return errors.New("waybill uow: nil db")
	}
	sqlTx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("waybill uow: begin: %w", err)
	}
	bound := &txBundle{
		waybills: NewTxRepository(sqlTx),
		ledger:   stockpg.NewTxLedger(sqlTx),
		blanks:   blankspg.NewTxRegistry(sqlTx),
		audit:    audit.NewTxRepository(sqlTx),
	}
	if err := fn(ctx, bound); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("waybill uow: commit: %w", err)
	}
	return nil
}

type txBundle struct {
	waybills *Repository
	ledger   *stockpg.Ledger
	blanks   *blankspg.Registry
	audit    *audit.Repository
}

func (t *txBundle) Waybills() waybill.TxRepository { return t.waybills }
func (t *txBundle) Ledger() stock.Ledger           { return t.ledger }
func (t *txBundle) Blanks() blanks.Registry        { return t.blanks }
func (t *txBundle) Audit() audit.Logger            { return t.audit }
