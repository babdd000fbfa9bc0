package arm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	azarm "github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walkerscm/cosmosctl/internal/throughput"
)

const accountPath = "/subscriptions/sub-1/resourceGroups/rg-1/providers/Microsoft.DocumentDB/databaseAccounts/acct"

var account = ResourceID{SubscriptionID: "sub-1", ResourceGroup: "rg-1", AccountName: "acct"}

func TestParseResourceID(t *testing.T) {
	id, err := ParseResourceID(accountPath + "/mongodbDatabases/db")
	require.NoError(t, err)
	assert.Equal(t, account, id)
	assert.Equal(t, accountPath, id.String())

	id, err = ParseResourceID("/SUBSCRIPTIONS/sub-1/resourcegroups/rg-1/providers/microsoft.documentdb/DatabaseAccounts/acct/")
	require.NoError(t, err)
	assert.Equal(t, "acct", id.AccountName)
}

func TestParseResourceIDInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"/subscriptions/sub-1",
		"/subscriptions/sub-1/resourceGroups/rg-1",
		"/subscriptions/sub-1/resourceGroups/rg-1/providers/Microsoft.Sql/servers/db",
	} {
		_, err := ParseResourceID(s)
		assert.ErrorIs(t, err, ErrInvalidResourceID, s)
	}
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken{Token: "tok"}.GetToken(context.Background(), policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.Token)
	assert.True(t, tok.ExpiresOn.After(time.Now()))

	_, err = StaticToken{}.GetToken(context.Background(), policy.TokenRequestOptions{})
	assert.Error(t, err)
}

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

// fakeARM is a TLS Resource Manager stand-in that records every request.
type fakeARM struct {
	srv *httptest.Server

	mu   sync.Mutex
	reqs []recorded
}

func newARM(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (Base, *fakeARM) {
	t.Helper()
	f := &fakeARM{}
	f.srv = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.reqs = append(f.reqs, recorded{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		})
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.srv.Close)

	base := Base{
		Credential: StaticToken{Token: "tok"},
		Options: &azarm.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Cloud:     CloudFor(f.srv.URL),
				Transport: f.srv.Client(),
				Retry:     policy.RetryOptions{MaxRetries: -1},
			},
			DisableRPRegistration: true,
		},
	}
	return base, f
}

func (f *fakeARM) requests() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.reqs)
}

func (f *fakeARM) index(method, path string) int {
	return slices.IndexFunc(f.requests(), func(r recorded) bool {
		return r.method == method && r.path == path
	})
}

func newService(t *testing.T, base Base) *MongoService {
	t.Helper()
	svc, err := NewMongoService(context.Background(), base, account)
	require.NoError(t, err)
	svc.PollFrequency = time.Millisecond
	return svc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestResolveResourceID(t *testing.T) {
	base, f := newARM(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"value": []map[string]string{
				{"id": "/subscriptions/sub-1/resourceGroups/other/providers/Microsoft.DocumentDB/databaseAccounts/nope", "name": "nope"},
				{"id": accountPath, "name": "acct"},
			},
		})
	})

	id, err := base.ResolveResourceID(context.Background(), ResourceID{SubscriptionID: "sub-1", AccountName: "ACCT"})
	require.NoError(t, err)
	assert.Equal(t, account, id)

	reqs := f.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/subscriptions/sub-1/providers/Microsoft.DocumentDB/databaseAccounts", reqs[0].path)
	assert.Equal(t, "Bearer tok", reqs[0].auth)
}

func TestResolveResourceIDUnknownAccount(t *testing.T) {
	base, _ := newARM(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"value": []any{}})
	})

	_, err := base.ResolveResourceID(context.Background(), ResourceID{SubscriptionID: "sub-1", AccountName: "ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost not found")
}

func TestResolveResourceIDCompleteIsUnchanged(t *testing.T) {
	base, f := newARM(t, func(w http.ResponseWriter, r *http.Request) {})

	got, err := base.ResolveResourceID(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, account, got)
	assert.Empty(t, f.requests())
}

// asyncAccount serves one collection's throughput settings. Migrations and
// updates answer 202 and only take effect once their operation is polled.
type asyncAccount struct {
	mu        sync.Mutex
	autoscale bool
	ru        int
	pendingRU int
}

func (a *asyncAccount) settings() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	res := map[string]any{"throughput": a.ru}
	if a.autoscale {
		res["autoscaleSettings"] = map[string]any{"maxThroughput": a.ru}
	}
	return map[string]any{"properties": map[string]any{"resource": res}}
}

func TestMongoServiceWaitsForLongRunningOperations(t *testing.T) {
	settings := accountPath + "/mongodbDatabases/db/collections/coll/throughputSettings/default"
	state := &asyncAccount{autoscale: true, ru: 4000}

	var srvURL string
	var f *fakeARM
	base, f := newARM(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == settings:
			writeJSON(w, http.StatusOK, state.settings())

		case r.Method == http.MethodPost && r.URL.Path == settings+"/migrateToManualThroughput":
			w.Header().Set("Azure-AsyncOperation", srvURL+"/operations/migrate")
			w.WriteHeader(http.StatusAccepted)

		case r.Method == http.MethodGet && r.URL.Path == "/operations/migrate":
			state.mu.Lock()
			state.autoscale = false
			state.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"status": "Succeeded"})

		case r.Method == http.MethodPut && r.URL.Path == settings:
			state.mu.Lock()
			defer state.mu.Unlock()
			if state.autoscale {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error": map[string]string{"code": "BadRequest", "message": "migration in progress"},
				})
				return
			}
			var body struct {
				Properties struct {
					Resource struct {
						Throughput int `json:"throughput"`
					} `json:"resource"`
				} `json:"properties"`
			}
			state.pendingRU = 0
			if reqs := f.requests(); len(reqs) > 0 {
				_ = json.Unmarshal([]byte(reqs[len(reqs)-1].body), &body)
				state.pendingRU = body.Properties.Resource.Throughput
			}
			w.Header().Set("Azure-AsyncOperation", srvURL+"/operations/update")
			w.WriteHeader(http.StatusAccepted)

		case r.Method == http.MethodGet && r.URL.Path == "/operations/update":
			state.mu.Lock()
			state.ru = state.pendingRU
			state.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"status": "Succeeded"})

		default:
			http.NotFound(w, r)
		}
	})
	srvURL = f.srv.URL
	svc := newService(t, base)

	target := throughput.Target{Database: "db", Collection: "coll"}
	action, got, err := throughput.Apply(context.Background(), svc, target, throughput.Change{Mode: throughput.Manual, RU: 1000})
	require.NoError(t, err)
	assert.Equal(t, throughput.ActionMigrateToManual, action)
	assert.Equal(t, throughput.Setting{Throughput: 1000}, got)

	migrated := f.index(http.MethodGet, "/operations/migrate")
	put := f.index(http.MethodPut, settings)
	require.NotEqual(t, -1, migrated)
	require.NotEqual(t, -1, put)
	assert.Less(t, migrated, put, "update sent before the migration finished")
	assert.JSONEq(t, `{"properties":{"resource":{"throughput":1000}}}`, f.requests()[put].body)
	assert.NotEqual(t, -1, f.index(http.MethodGet, "/operations/update"))
}

func TestMongoServiceMigrateDatabaseToAutoscale(t *testing.T) {
	settings := accountPath + "/mongodbDatabases/db/throughputSettings/default"
	state := &asyncAccount{ru: 1000}

	base, f := newARM(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == settings+"/migrateToAutoscale":
			state.mu.Lock()
			state.autoscale = true
			state.mu.Unlock()
			writeJSON(w, http.StatusOK, state.settings())
		case r.Method == http.MethodGet && r.URL.Path == settings:
			writeJSON(w, http.StatusOK, state.settings())
		default:
			http.NotFound(w, r)
		}
	})
	svc := newService(t, base)

	got, err := svc.MigrateToAutoscale(context.Background(), throughput.Target{Database: "db"})
	require.NoError(t, err)
	assert.True(t, got.IsAutoscale())
	assert.Equal(t, 1000, got.AutoscaleMaxThroughput)
	assert.Equal(t, 0, f.index(http.MethodPost, settings+"/migrateToAutoscale"))
}

func TestGetThroughputNotProvisioned(t *testing.T) {
	base, _ := newARM(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]string{"code": "NotFound", "message": "Throughput is not configured"},
		})
	})
	svc := newService(t, base)

	_, err := svc.GetThroughput(context.Background(), throughput.Target{Database: "db", Collection: "shared"})
	require.Error(t, err)
	assert.ErrorIs(t, err, throughput.ErrNotProvisioned)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "db.shared")
}

func TestListDatabasesAndCollections(t *testing.T) {
	base, _ := newARM(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case accountPath + "/mongodbDatabases":
			writeJSON(w, http.StatusOK, map[string]any{
				"value": []map[string]string{{"name": "users"}, {"name": "orders"}},
			})
		case accountPath + "/mongodbDatabases/orders/collections":
			writeJSON(w, http.StatusOK, map[string]any{
				"value": []map[string]string{{"name": "lines"}, {"name": "headers"}},
			})
		default:
			http.NotFound(w, r)
		}
	})
	svc := newService(t, base)

	dbs, err := svc.ListDatabases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, dbs)

	colls, err := svc.ListCollections(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"headers", "lines"}, colls)

	_, err = svc.ListCollections(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

type createBody struct {
	Properties struct {
		Resource struct {
			ID       string            `json:"id"`
			ShardKey map[string]string `json:"shardKey"`
		} `json:"resource"`
		Options struct {
			Throughput        int `json:"throughput"`
			AutoscaleSettings struct {
				MaxThroughput int `json:"maxThroughput"`
			} `json:"autoscaleSettings"`
		} `json:"options"`
	} `json:"properties"`
}

// echoCreate answers create requests with the requested resource ID.
func echoCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"properties": map[string]any{"resource": map[string]string{"id": body.Properties.Resource.ID}},
	})
}

func TestCreateDatabase(t *testing.T) {
	base, f := newARM(t, echoCreate)
	svc := newService(t, base)

	id, err := svc.CreateDatabase(context.Background(), "orders", throughput.Provisioning{Mode: throughput.Manual, RU: 400})
	require.NoError(t, err)
	assert.Equal(t, "orders", id)

	reqs := f.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, accountPath+"/mongodbDatabases/orders", reqs[0].path)

	var body createBody
	require.NoError(t, json.Unmarshal([]byte(reqs[0].body), &body))
	assert.Equal(t, 400, body.Properties.Options.Throughput)
	assert.Zero(t, body.Properties.Options.AutoscaleSettings.MaxThroughput)
}

func TestCreateCollection(t *testing.T) {
	base, f := newARM(t, echoCreate)
	svc := newService(t, base)

	id, err := svc.CreateCollection(context.Background(), "orders", "lines", "tenant",
		throughput.Provisioning{Mode: throughput.Autoscale, RU: 4000})
	require.NoError(t, err)
	assert.Equal(t, "lines", id)

	reqs := f.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, accountPath+"/mongodbDatabases/orders/collections/lines", reqs[0].path)

	var body createBody
	require.NoError(t, json.Unmarshal([]byte(reqs[0].body), &body))
	assert.Equal(t, map[string]string{"tenant": "Hash"}, body.Properties.Resource.ShardKey)
	assert.Equal(t, 4000, body.Properties.Options.AutoscaleSettings.MaxThroughput)
}

func TestCreateRejectsInvalidProvisioning(t *testing.T) {
	base, f := newARM(t, echoCreate)
	svc := newService(t, base)

	_, err := svc.CreateDatabase(context.Background(), "orders", throughput.Provisioning{Mode: throughput.Manual})
	assert.Error(t, err)
	assert.Empty(t, f.requests())
}
