package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/olivere/elastic/v7"
)

var ErrCursorNotFound = errors.New("scan cursor not found")

type CursorRepository interface {
	Get() (entity.ScanCursor, error)
}

type cursorRepository struct {
	elastic elastic_search.Index
}

func NewCursorRepository(elastic elastic_search.Index) CursorRepository {
	return cursorRepository{elastic}
}

func (r cursorRepository) Get() (entity.ScanCursor, error) {
	result, err := r.elastic.GetClient().
		Get().
		Index(elastic_search.CursorIndex.Get()).
		Id(entity.CursorSlug).
		Do(context.Background())

	if err != nil {
		if elastic.IsNotFound(err) {
			return entity.ScanCursor{}, ErrCursorNotFound
		}
		return entity.ScanCursor{}, err
	}

	var cursor entity.ScanCursor
	err = json.Unmarshal(result.Source, &cursor)

	return cursor, err
}
