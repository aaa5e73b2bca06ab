package repository

import (
	"encoding/json"
	"errors"

	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/olivere/elastic/v7"
)

var ErrListingNotFound = errors.New("listing not found")

const activeListingPageSize = 10000

type ListingRepository interface {
	// FindActiveByToken returns every active listing for the token, in
	// creation order. Duplicates are possible and returned in full.
	FindActiveByToken(tokenId string) ([]entity.Listing, error)
	ListActive() ([]entity.Listing, error)
	// FindPartnerListing returns a listing for the token carrying a partner
	// tag, active or not, or ErrListingNotFound.
	FindPartnerListing(tokenId string) (entity.Listing, error)
}

type listingRepository struct {
	elastic elastic_search.Index
}

func NewListingRepository(elastic elastic_search.Index) ListingRepository {
	return listingRepository{elastic}
}

func (r listingRepository) FindActiveByToken(tokenId string) ([]entity.Listing, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("tokenId.keyword", tokenId),
		elastic.NewTermQuery("active", true),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Sort("createdAt", true).
		Size(activeListingPageSize))

	return r.findMany(result, err)
}

func (r listingRepository) ListActive() ([]entity.Listing, error) {
	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(elastic.NewTermQuery("active", true)).
		Sort("createdAt", true).
		Size(activeListingPageSize))

	return r.findMany(result, err)
}

func (r listingRepository) FindPartnerListing(tokenId string) (entity.Listing, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("tokenId.keyword", tokenId),
		elastic.NewExistsQuery("partnerId"),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Size(1))

	return r.findOne(result, err)
}

func (r listingRepository) findOne(results *elastic.SearchResult, err error) (entity.Listing, error) {
	if err != nil {
		return entity.Listing{}, err
	}

	if len(results.Hits.Hits) == 0 {
		return entity.Listing{}, ErrListingNotFound
	}

	var listing entity.Listing
	err = json.Unmarshal(results.Hits.Hits[0].Source, &listing)

	return listing, err
}

func (r listingRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Listing, error) {
	if err != nil {
		return nil, err
	}

	listings := make([]entity.Listing, 0, len(results.Hits.Hits))
	for _, hit := range results.Hits.Hits {
		var listing entity.Listing
		if err := json.Unmarshal(hit.Source, &listing); err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	return listings, nil
}
