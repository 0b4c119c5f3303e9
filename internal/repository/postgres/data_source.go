package postgres

import "github.com/andresuchdata/setledger-ai/internal/repository"

// DataSource serves every read of the prediction services from Postgres
type DataSource struct {
	*ledgerRepository
	*productRepository
	*salesRepository
}

func NewDataSource(db *DB) *DataSource {
	return &DataSource{
		ledgerRepository:  NewLedgerRepository(db),
		productRepository: NewProductRepository(db),
		salesRepository:   NewSalesRepository(db),
	}
}

var (
	_ repository.DataSource  = (*DataSource)(nil)
	_ repository.RunRecorder = (*runRepository)(nil)
)
