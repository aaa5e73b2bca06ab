package repository

import (
	"encoding/json"
	"errors"

	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/olivere/elastic/v7"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepository interface {
	GetByLedgerTxHash(hash string) (entity.Transaction, error)
}

type transactionRepository struct {
	elastic elastic_search.Index
}

func NewTransactionRepository(elastic elastic_search.Index) TransactionRepository {
	return transactionRepository{elastic}
}

func (r transactionRepository) GetByLedgerTxHash(hash string) (entity.Transaction, error) {
	result, err := search(r.elastic.GetClient().
		Search(elastic_search.TransactionIndex.Get()).
		Query(elastic.NewTermQuery("ledgerTxHash.keyword", hash)).
		Size(1))

	if err != nil {
		return entity.Transaction{}, err
	}

	if len(result.Hits.Hits) == 0 {
		return entity.Transaction{}, ErrTransactionNotFound
	}

	var tx entity.Transaction
	err = json.Unmarshal(result.Hits.Hits[0].Source, &tx)

	return tx, err
}
