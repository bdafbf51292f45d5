package integration

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/persistence"
	"github.com/stockpilot/backend/internal/infrastructure/vault"
	"github.com/stockpilot/backend/tests/testutil"
	"github.com/stretchr/testify/require"
)

const webhookTestSecret = "whsec_test"

// scriptedConnector serves fixed pages; the cursor is the page index.
// failures are returned, in order, by the first FetchProducts calls.
type scriptedConnector struct {
	mu           sync.Mutex
	platform     integration.PlatformCode
	productPages []integration.ProductPage
	orderPages   []integration.OrderPage
	failures     []error
	pingErr      error
	sinces       []time.Time
	beforeFetch  func()
}

func (c *scriptedConnector) Platform() integration.PlatformCode { return c.platform }

func (c *scriptedConnector) Ping(context.Context) (string, error) {
	if c.pingErr != nil {
		return "", c.pingErr
	}
	return "acme-shop", nil
}

func (c *scriptedConnector) FetchProducts(_ context.Context, cursor string) (*integration.ProductPage, error) {
	if c.beforeFetch != nil {
		c.beforeFetch()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.failures) > 0 {
		err := c.failures[0]
		c.failures = c.failures[1:]
		return nil, err
	}
	if len(c.productPages) == 0 {
		return &integration.ProductPage{}, nil
	}
	page := c.productPages[pageIndex(cursor)]
	return &page, nil
}

func (c *scriptedConnector) FetchOrders(_ context.Context, since time.Time, cursor string) (*integration.OrderPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cursor == "" {
		c.sinces = append(c.sinces, since)
	}
	if len(c.orderPages) == 0 {
		return &integration.OrderPage{}, nil
	}
	page := c.orderPages[pageIndex(cursor)]
	return &page, nil
}

func pageIndex(cursor string) int {
	if cursor == "" {
		return 0
	}
	i, _ := strconv.Atoi(cursor)
	return i
}

type stubFactory struct {
	connector *scriptedConnector
	err       error
}

func (f *stubFactory) NewConnector(*integration.Integration, integration.Credentials) (integration.Connector, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.connector, nil
}

// flakyVault fails the first Get calls with the queued errors
type flakyVault struct {
	integration.CredentialVault
	mu       sync.Mutex
	failures []error
	gets     int
}

func (v *flakyVault) Get(ctx context.Context, ref string) (integration.Credentials, error) {
	v.mu.Lock()
	v.gets++
	if len(v.failures) > 0 {
		err := v.failures[0]
		v.failures = v.failures[1:]
		v.mu.Unlock()
		return integration.Credentials{}, err
	}
	v.mu.Unlock()
	return v.CredentialVault.Get(ctx, ref)
}

type recordingCache struct {
	mu        sync.Mutex
	forgotten []uuid.UUID
}

func (c *recordingCache) Forget(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	c.forgotten = append(c.forgotten, id)
	c.mu.Unlock()
}

type recordingSubmitter struct {
	mu       sync.Mutex
	jobs     []integration.SyncJob
	err      error
	inFlight map[uuid.UUID]bool
}

func (s *recordingSubmitter) InFlight(integrationID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[integrationID]
}

func (s *recordingSubmitter) Submit(job integration.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// syncFixture wires the integration services over SQLite and an in-memory vault
type syncFixture struct {
	tenantID     uuid.UUID
	integrations *persistence.GormIntegrationRepository
	runs         *persistence.GormSyncRunRepository
	events       *persistence.GormWebhookEventRepository
	products     *persistence.GormProductRepository
	variants     *persistence.GormVariantRepository
	orders       *persistence.GormSalesOrderRepository
	vault        *vault.MemoryVault
	connector    *scriptedConnector
	factory      *stubFactory
	cache        *recordingCache
	writer       *PlatformWriter
	sleeps       []time.Duration
	integration  *integration.Integration
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	connector := &scriptedConnector{platform: integration.PlatformShopify}
	f := &syncFixture{
		tenantID:     testutil.TestTenantID(),
		integrations: persistence.NewGormIntegrationRepository(db),
		runs:         persistence.NewGormSyncRunRepository(db),
		events:       persistence.NewGormWebhookEventRepository(db),
		products:     persistence.NewGormProductRepository(db),
		variants:     persistence.NewGormVariantRepository(db),
		orders:       persistence.NewGormSalesOrderRepository(db),
		vault:        vault.NewMemoryVault(),
		connector:    connector,
		factory:      &stubFactory{connector: connector},
		cache:        &recordingCache{},
	}
	f.writer = NewPlatformWriter(f.products, f.variants, f.orders)
	f.integration = f.connectedIntegration(t, "acme.myshopify.com")
	return f
}

func (f *syncFixture) connectedIntegration(t *testing.T, store string) *integration.Integration {
	t.Helper()
	ctx := context.Background()
	in, err := integration.NewIntegration(f.tenantID, integration.PlatformShopify, "Main store", store)
	require.NoError(t, err)
	in.MarkConnected("acme-shop")
	require.NoError(t, f.integrations.Create(ctx, in))
	require.NoError(t, f.vault.Put(ctx, in.CredentialRef, integration.Credentials{
		AccessToken:   "shpat_test",
		WebhookSecret: webhookTestSecret,
	}))
	return in
}

func (f *syncFixture) syncService(opts ...SyncServiceOption) *SyncService {
	opts = append([]SyncServiceOption{WithSleeper(func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	})}, opts...)
	return NewSyncService(f.integrations, f.runs, f.vault, f.factory, f.writer, nil, opts...)
}

func (f *syncFixture) job(t *testing.T, kind integration.SyncKind) integration.SyncJob {
	t.Helper()
	job, err := integration.NewSyncJob(f.tenantID, f.integration.ID, kind, integration.SyncTriggerManual)
	require.NoError(t, err)
	return job
}

func (f *syncFixture) reload(t *testing.T) *integration.Integration {
	t.Helper()
	in, err := f.integrations.FindByIDForTenant(context.Background(), f.tenantID, f.integration.ID)
	require.NoError(t, err)
	return in
}

func (f *syncFixture) latestRun(t *testing.T) integration.SyncRun {
	t.Helper()
	runs, _, err := f.runs.FindByIntegration(context.Background(), f.tenantID, f.integration.ID, sharedFilter())
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	return runs[0]
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func qty(v int) *int { return &v }

func sharedFilter() shared.Filter {
	return shared.Filter{}.Normalize()
}
