package arm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cosmos/armcosmos/v2"
	"github.com/walkerscm/cosmosctl/internal/logger"
	"github.com/walkerscm/cosmosctl/internal/throughput"
)

// DefaultPollFrequency is how often long-running operations are polled.
const DefaultPollFrequency = 2 * time.Second

// MongoService manages MongoDB API databases and collections of one account.
type MongoService struct {
	account ResourceID
	client  *armcosmos.MongoDBResourcesClient

	// PollFrequency overrides DefaultPollFrequency when positive.
	PollFrequency time.Duration
}

var (
	_ throughput.Client = (*MongoService)(nil)
	_ throughput.Lister = (*MongoService)(nil)
)

// NewMongoService resolves account through caps and returns a service bound to it.
func NewMongoService(ctx context.Context, caps Capabilities, account ResourceID) (*MongoService, error) {
	resolved, err := caps.ResolveResourceID(ctx, account)
	if err != nil {
		return nil, err
	}
	client, err := caps.CreateClient(resolved.SubscriptionID)
	if err != nil {
		return nil, err
	}
	return &MongoService{account: resolved, client: client}, nil
}

// Account returns the resolved account ID.
func (s *MongoService) Account() ResourceID {
	return s.account
}

func (s *MongoService) rg() string   { return s.account.ResourceGroup }
func (s *MongoService) name() string { return s.account.AccountName }

// wait blocks until a long-running operation reaches a terminal state.
func wait[T any](ctx context.Context, s *MongoService, poller *runtime.Poller[T]) (T, error) {
	freq := s.PollFrequency
	if freq <= 0 {
		freq = DefaultPollFrequency
	}
	return poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: freq})
}

func settingOf(r armcosmos.ThroughputSettingsGetResults) throughput.Setting {
	var s throughput.Setting
	if r.Properties == nil || r.Properties.Resource == nil {
		return s
	}
	res := r.Properties.Resource
	if res.Throughput != nil {
		s.Throughput = int(*res.Throughput)
	}
	if res.AutoscaleSettings != nil && res.AutoscaleSettings.MaxThroughput != nil {
		s.AutoscaleMaxThroughput = int(*res.AutoscaleSettings.MaxThroughput)
	}
	return s
}

// GetThroughput reads the throughput of t. Targets without throughput of
// their own return an error wrapping throughput.ErrNotProvisioned.
func (s *MongoService) GetThroughput(ctx context.Context, t throughput.Target) (throughput.Setting, error) {
	var res armcosmos.ThroughputSettingsGetResults
	var err error
	if t.Collection == "" {
		var resp armcosmos.MongoDBResourcesClientGetMongoDBDatabaseThroughputResponse
		resp, err = s.client.GetMongoDBDatabaseThroughput(ctx, s.rg(), s.name(), t.Database, nil)
		res = resp.ThroughputSettingsGetResults
	} else {
		var resp armcosmos.MongoDBResourcesClientGetMongoDBCollectionThroughputResponse
		resp, err = s.client.GetMongoDBCollectionThroughput(ctx, s.rg(), s.name(), t.Database, t.Collection, nil)
		res = resp.ThroughputSettingsGetResults
	}
	if IsNotFound(err) {
		return throughput.Setting{}, fmt.Errorf("%s: %w: %w", t, throughput.ErrNotProvisioned, err)
	}
	if err != nil {
		return throughput.Setting{}, err
	}
	return settingOf(res), nil
}

// UpdateThroughput sets a manual throughput of ru RU/s, waits for the
// operation and returns the setting read back afterwards.
func (s *MongoService) UpdateThroughput(ctx context.Context, t throughput.Target, ru int) (throughput.Setting, error) {
	params := armcosmos.ThroughputSettingsUpdateParameters{
		Properties: &armcosmos.ThroughputSettingsUpdateProperties{
			Resource: &armcosmos.ThroughputSettingsResource{Throughput: to.Ptr(int32(ru))},
		},
	}

	var err error
	if t.Collection == "" {
		var p *runtime.Poller[armcosmos.MongoDBResourcesClientUpdateMongoDBDatabaseThroughputResponse]
		if p, err = s.client.BeginUpdateMongoDBDatabaseThroughput(ctx, s.rg(), s.name(), t.Database, params, nil); err == nil {
			_, err = wait(ctx, s, p)
		}
	} else {
		var p *runtime.Poller[armcosmos.MongoDBResourcesClientUpdateMongoDBCollectionThroughputResponse]
		if p, err = s.client.BeginUpdateMongoDBCollectionThroughput(ctx, s.rg(), s.name(), t.Database, t.Collection, params, nil); err == nil {
			_, err = wait(ctx, s, p)
		}
	}
	if err != nil {
		return throughput.Setting{}, err
	}
	return s.GetThroughput(ctx, t)
}

// MigrateToAutoscale switches t to autoscale and waits for the migration.
func (s *MongoService) MigrateToAutoscale(ctx context.Context, t throughput.Target) (throughput.Setting, error) {
	var err error
	if t.Collection == "" {
		var p *runtime.Poller[armcosmos.MongoDBResourcesClientMigrateMongoDBDatabaseToAutoscaleResponse]
		if p, err = s.client.BeginMigrateMongoDBDatabaseToAutoscale(ctx, s.rg(), s.name(), t.Database, nil); err == nil {
			_, err = wait(ctx, s, p)
		}
	} else {
		var p *runtime.Poller[armcosmos.MongoDBResourcesClientMigrateMongoDBCollectionToAutoscaleResponse]
		if p, err = s.client.BeginMigrateMongoDBCollectionToAutoscale(ctx, s.rg(), s.name(), t.Database, t.Collection, nil); err == nil {
			_, err = wait(ctx, s, p)
		}
	}
	if err != nil {
		return throughput.Setting{}, err
	}
	return s.GetThroughput(ctx, t)
}

// MigrateToManual switches t to manual throughput and waits for the
// migration, so a following update sees the manual setting.
func (s *MongoService) MigrateToManual(ctx context.Context, t throughput.Target) (throughput.Setting, error) {
	var err error
	if t.Collection == "" {
		var p *runtime.Poller[armcosmos.MongoDBResourcesClientMigrateMongoDBDatabaseToManualThroughputResponse]
		if p, err = s.client.BeginMigrateMongoDBDatabaseToManualThroughput(ctx, s.rg(), s.name(), t.Database, nil); err == nil {
			_, err = wait(ctx, s, p)
		}
	} else {
		var p *runtime.Poller[armcosmos.MongoDBResourcesClientMigrateMongoDBCollectionToManualThroughputResponse]
		if p, err = s.client.BeginMigrateMongoDBCollectionToManualThroughput(ctx, s.rg(), s.name(), t.Database, t.Collection, nil); err == nil {
			_, err = wait(ctx, s, p)
		}
	}
	if err != nil {
		return throughput.Setting{}, err
	}
	return s.GetThroughput(ctx, t)
}

// ListDatabases returns the sorted names of the account's MongoDB databases.
func (s *MongoService) ListDatabases(ctx context.Context) ([]string, error) {
	var names []string
	pager := s.client.NewListMongoDBDatabasesPager(s.rg(), s.name(), nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing databases of %s: %w", s.name(), err)
		}
		for _, db := range page.Value {
			if db != nil && db.Name != nil {
				names = append(names, *db.Name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListCollections returns the sorted names of the collections in database.
func (s *MongoService) ListCollections(ctx context.Context, database string) ([]string, error) {
	var names []string
	pager := s.client.NewListMongoDBCollectionsPager(s.rg(), s.name(), database, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing collections of %s: %w", database, err)
		}
		for _, coll := range page.Value {
			if coll != nil && coll.Name != nil {
				names = append(names, *coll.Name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func createOptions(p throughput.Provisioning) (*armcosmos.CreateUpdateOptions, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch p.Mode {
	case throughput.Autoscale:
		return &armcosmos.CreateUpdateOptions{
			AutoscaleSettings: &armcosmos.AutoscaleSettings{MaxThroughput: to.Ptr(int32(p.RU))},
		}, nil
	case throughput.Manual:
		return &armcosmos.CreateUpdateOptions{Throughput: to.Ptr(int32(p.RU))}, nil
	}
	return nil, nil
}

// CreateDatabase creates database with the given shared throughput and
// returns its ID. The zero Provisioning creates it without shared throughput.
func (s *MongoService) CreateDatabase(ctx context.Context, database string, p throughput.Provisioning) (string, error) {
	opts, err := createOptions(p)
	if err != nil {
		return "", err
	}
	params := armcosmos.MongoDBDatabaseCreateUpdateParameters{
		Properties: &armcosmos.MongoDBDatabaseCreateUpdateProperties{
			Resource: &armcosmos.MongoDBDatabaseResource{ID: to.Ptr(database)},
			Options:  opts,
		},
	}

	logger.Info("creating database", "account", s.name(), "database", database, "throughput", p.String())
	poller, err := s.client.BeginCreateUpdateMongoDBDatabase(ctx, s.rg(), s.name(), database, params, nil)
	if err != nil {
		return "", fmt.Errorf("creating database %s: %w", database, err)
	}
	resp, err := wait(ctx, s, poller)
	if err != nil {
		return "", fmt.Errorf("creating database %s: %w", database, err)
	}
	if resp.Properties == nil || resp.Properties.Resource == nil || resp.Properties.Resource.ID == nil {
		return "", fmt.Errorf("creating database %s: response has no resource ID", database)
	}
	return *resp.Properties.Resource.ID, nil
}

// CreateCollection creates collection in database and returns its ID. A
// non-empty shardKey shards it on that field with a hashed key. Without
// Provisioning the collection shares its database's throughput, and the
// database is created implicitly when missing.
func (s *MongoService) CreateCollection(ctx context.Context, database, collection, shardKey string, p throughput.Provisioning) (string, error) {
	opts, err := createOptions(p)
	if err != nil {
		return "", err
	}
	resource := &armcosmos.MongoDBCollectionResource{ID: to.Ptr(collection)}
	if shardKey != "" {
		resource.ShardKey = map[string]*string{shardKey: to.Ptr("Hash")}
	}
	params := armcosmos.MongoDBCollectionCreateUpdateParameters{
		Properties: &armcosmos.MongoDBCollectionCreateUpdateProperties{
			Resource: resource,
			Options:  opts,
		},
	}

	t := throughput.Target{Database: database, Collection: collection}
	logger.Info("creating collection", "account", s.name(), "target", t.String(), "throughput", p.String())
	poller, err := s.client.BeginCreateUpdateMongoDBCollection(ctx, s.rg(), s.name(), database, collection, params, nil)
	if err != nil {
		return "", fmt.Errorf("creating collection %s: %w", t, err)
	}
	resp, err := wait(ctx, s, poller)
	if err != nil {
		return "", fmt.Errorf("creating collection %s: %w", t, err)
	}
	if resp.Properties == nil || resp.Properties.Resource == nil || resp.Properties.Resource.ID == nil {
		return "", fmt.Errorf("creating collection %s: response has no resource ID", t)
	}
	return *resp.Properties.Resource.ID, nil
}
