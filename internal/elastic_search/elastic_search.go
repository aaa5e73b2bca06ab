package elastic_search

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"time"

	"github.com/artfolio/marketplace-chain-sync/internal/config"
	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Index buffers mutations in memory and flushes them as one bulk request.
// Each reconciliation loop owns its own Index so a flush can never carry
// another loop's half-built unit of work.
type Index interface {
	GetClient() *elastic.Client

	InstallMappings()

	AddIndexRequest(index Indices, entity entity.Entity)
	AddUpdateRequest(index Indices, entity entity.Entity)
	GetRequests() []Request
	ClearRequests()

	Persist() int
}

type index struct {
	client  *elastic.Client
	cache   *cache.Cache
	refresh string
}

type Request struct {
	Index  string
	Entity entity.Entity
	Type   RequestType
}

type RequestType string

const (
	IndexRequest  RequestType = "index"
	UpdateRequest RequestType = "update"
)

func New() (Index, error) {
	client, err := NewClient()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("ElasticSearch: Failed to create client")
	}

	return NewWithClient(client), err
}

func NewWithClient(client *elastic.Client) Index {
	return index{client, cache.New(5*time.Minute, 10*time.Minute), config.Get().ElasticSearch.Refresh}
}

func NewClient() (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(strings.Join(config.Get().ElasticSearch.Hosts, ",")),
		elastic.SetSniff(config.Get().ElasticSearch.Sniff),
		elastic.SetHealthcheck(config.Get().ElasticSearch.HealthCheck),
	}

	if config.Get().ElasticSearch.Debug {
		opts = append(opts, elastic.SetTraceLog(ElasticLogger{}))
	}

	if config.Get().ElasticSearch.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(
			config.Get().ElasticSearch.Username,
			config.Get().ElasticSearch.Password,
		))
	}

	return elastic.NewClient(opts...)
}

func (i index) GetClient() *elastic.Client {
	return i.client
}

func (i index) InstallMappings() {
	zap.L().Info("ElasticSearch: Install Mappings")

	files, err := ioutil.ReadDir(config.Get().ElasticSearch.MappingDir)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("ElasticSearch: Elastic mappings directory error")
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}

		b, err := ioutil.ReadFile(fmt.Sprintf("%s/%s", config.Get().ElasticSearch.MappingDir, f.Name()))
		if err != nil {
			zap.L().With(zap.Error(err)).With(zap.String("file", f.Name())).Fatal("ElasticSearch: Elastic mappings file error")
		}

		name := fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, f.Name()[0:len(f.Name())-len(filepath.Ext(f.Name()))])
		if err = i.createIndex(name, b); err != nil {
			zap.S().With(zap.Error(err)).Fatalf("ElasticSearch: Failed to create index %s", name)
		}
	}
}

func (i index) createIndex(name string, mapping []byte) error {
	ctx := context.Background()

	exists, err := i.client.IndexExists(name).Do(ctx)
	if err != nil {
		return err
	}

	if !exists {
		createIndex, err := i.client.CreateIndex(name).BodyString(string(mapping)).Do(ctx)
		if err != nil {
			return err
		}

		if createIndex.Acknowledged {
			zap.S().Infof("ElasticSearch: Created index %s", name)
		}
	}

	return nil
}

func (i index) AddIndexRequest(idx Indices, e entity.Entity) {
	zap.L().With(
		zap.String("index", idx.Get()),
		zap.String("slug", e.Slug()),
	).Debug("ElasticSearch: AddIndexRequest")

	i.addRequest(idx.Get(), e, IndexRequest)
}

func (i index) AddUpdateRequest(idx Indices, e entity.Entity) {
	zap.L().With(
		zap.String("index", idx.Get()),
		zap.String("slug", e.Slug()),
	).Debug("ElasticSearch: AddUpdateRequest")

	// An index request already buffered for this document wins: the full
	// document carries the update.
	if cached, found := i.cache.Get(e.Slug()); found {
		if cached.(Request).Type == IndexRequest {
			i.addRequest(idx.Get(), e, IndexRequest)
			return
		}
	}

	i.addRequest(idx.Get(), e, UpdateRequest)
}

func (i index) addRequest(idx string, e entity.Entity, reqType RequestType) {
	i.cache.Set(e.Slug(), Request{idx, e, reqType}, cache.DefaultExpiration)
}

func (i index) GetRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) ClearRequests() {
	i.cache.Flush()
}

func (i index) Persist() int {
	bulk := i.client.Bulk()
	for _, r := range i.GetRequests() {
		if r.Type == IndexRequest {
			bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		} else if r.Type == UpdateRequest {
			bulk.Add(elastic.NewBulkUpdateRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		}

		if bulk.NumberOfActions() >= config.Get().ElasticSearch.BulkPersistCount {
			i.persist(bulk)
			bulk = i.client.Bulk()
		}
	}

	actions := bulk.NumberOfActions()
	if actions != 0 {
		i.persist(bulk)
	}

	i.ClearRequests()

	return actions
}

func (i index) persist(bulk *elastic.BulkService) {
	actions := bulk.NumberOfActions()
	zap.S().Debugf("ElasticSearch: Persisting %d actions", actions)

	_, err := bulk.Refresh(i.refresh).Do(context.Background())
	if err != nil {
		time.Sleep(1 * time.Second)
		_, err = bulk.Refresh(i.refresh).Do(context.Background())
		if err != nil {
			if err.Error() == "elastic: Error 429 (Too Many Requests)" {
				zap.L().With(zap.Error(err)).Warn("ElasticSearch: 429 (Too Many Requests)")
				time.Sleep(5 * time.Second)
				i.persist(bulk)
				return
			}
			zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to persist requests")
		}
	}
}
