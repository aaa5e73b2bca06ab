package watcher

import (
	"context"
	"fmt"

	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/artfolio/marketplace-chain-sync/internal/repository"
	"github.com/olivere/elastic/v7"
)

type fakeLedger struct {
	tip    uint64
	tipErr error

	logs    map[string][]entity.SettlementEvent
	logsErr error

	owners   map[string]string
	ownerErr map[string]error

	calls []string
}

func (f *fakeLedger) CurrentBlock(_ context.Context) (uint64, error) {
	f.calls = append(f.calls, "CurrentBlock")
	return f.tip, f.tipErr
}

func (f *fakeLedger) GetSettlementLogs(_ context.Context, fromBlock, toBlock uint64) ([]entity.SettlementEvent, error) {
	key := rangeKey(fromBlock, toBlock)
	f.calls = append(f.calls, "GetSettlementLogs "+key)
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	return f.logs[key], nil
}

func (f *fakeLedger) OwnerOf(_ context.Context, tokenId string) (string, error) {
	f.calls = append(f.calls, "OwnerOf "+tokenId)
	if err, ok := f.ownerErr[tokenId]; ok {
		return "", err
	}
	owner, ok := f.owners[tokenId]
	if !ok {
		return "", fmt.Errorf("no owner for token %s", tokenId)
	}
	return owner, nil
}

func rangeKey(fromBlock, toBlock uint64) string {
	return fmt.Sprintf("%d-%d", fromBlock, toBlock)
}

type fakeListingRepo struct {
	activeByToken map[string][]entity.Listing
	activeErr     map[string]error

	active    []entity.Listing
	activeAll error

	partnerByToken map[string]entity.Listing
	partnerErr     map[string]error
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{
		activeByToken:  map[string][]entity.Listing{},
		activeErr:      map[string]error{},
		partnerByToken: map[string]entity.Listing{},
		partnerErr:     map[string]error{},
	}
}

func (f *fakeListingRepo) FindActiveByToken(tokenId string) ([]entity.Listing, error) {
	if err, ok := f.activeErr[tokenId]; ok {
		return nil, err
	}
	return f.activeByToken[tokenId], nil
}

func (f *fakeListingRepo) ListActive() ([]entity.Listing, error) {
	if f.activeAll != nil {
		return nil, f.activeAll
	}
	return f.active, nil
}

func (f *fakeListingRepo) FindPartnerListing(tokenId string) (entity.Listing, error) {
	if err, ok := f.partnerErr[tokenId]; ok {
		return entity.Listing{}, err
	}
	l, ok := f.partnerByToken[tokenId]
	if !ok {
		return entity.Listing{}, repository.ErrListingNotFound
	}
	return l, nil
}

type fakeTxRepo struct {
	byHash map[string]entity.Transaction
	getErr error
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{byHash: map[string]entity.Transaction{}}
}

func (f *fakeTxRepo) GetByLedgerTxHash(hash string) (entity.Transaction, error) {
	if f.getErr != nil {
		return entity.Transaction{}, f.getErr
	}
	tx, ok := f.byHash[hash]
	if !ok {
		return entity.Transaction{}, repository.ErrTransactionNotFound
	}
	return tx, nil
}

type fakeCursorRepo struct {
	cursor entity.ScanCursor
	err    error
}

func (f *fakeCursorRepo) Get() (entity.ScanCursor, error) {
	if f.err != nil {
		return entity.ScanCursor{}, f.err
	}
	return f.cursor, nil
}

type fakeReconciler struct {
	batches [][]entity.SettlementEvent
}

func (f *fakeReconciler) Process(_ context.Context, events []entity.SettlementEvent) {
	f.batches = append(f.batches, events)
}

// fakeIndex records buffered requests and snapshots them on each Persist,
// mirroring the flush-then-clear contract of the real unit of work.
type fakeIndex struct {
	requests  []elastic_search.Request
	persisted [][]elastic_search.Request
}

func (f *fakeIndex) GetClient() *elastic.Client { return nil }

func (f *fakeIndex) InstallMappings() {}

func (f *fakeIndex) AddIndexRequest(index elastic_search.Indices, e entity.Entity) {
	f.requests = append(f.requests, elastic_search.Request{
		Index:  index.Get(),
		Entity: e,
		Type:   elastic_search.IndexRequest,
	})
}

func (f *fakeIndex) AddUpdateRequest(index elastic_search.Indices, e entity.Entity) {
	f.requests = append(f.requests, elastic_search.Request{
		Index:  index.Get(),
		Entity: e,
		Type:   elastic_search.UpdateRequest,
	})
}

func (f *fakeIndex) GetRequests() []elastic_search.Request {
	return f.requests
}

func (f *fakeIndex) ClearRequests() {
	f.requests = nil
}

func (f *fakeIndex) Persist() int {
	count := len(f.requests)
	f.persisted = append(f.persisted, f.requests)
	f.requests = nil
	return count
}

func (f *fakeIndex) allPersisted() []elastic_search.Request {
	var all []elastic_search.Request
	for _, batch := range f.persisted {
		all = append(all, batch...)
	}
	return all
}
