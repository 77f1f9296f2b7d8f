package runner

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yaroslav/topoctl/internal/emulator"
	"github.com/yaroslav/topoctl/internal/metrics"
	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/topology"
	"github.com/yaroslav/topoctl/sdk"
)

const scenario = "../../../pkg/blueprint/testdata/multiple-tenant-nat.yaml"

func init() {
	gin.SetMode(gin.TestMode)
}

func scenarioConfig() emulator.Config {
	return emulator.Config{
		Tenants: []models.Tenant{
			{ID: "t-0", Name: "tenant0"},
			{ID: "t-1", Name: "tenant1"},
			{ID: "t-p", Name: "midonet_provider"},
		},
		Hosts: []models.Host{
			{ID: "00000000-0000-0000-0000-000000000001", Name: "host0", Alive: true},
			{ID: "00000000-0000-0000-0000-000000000002", Name: "host1", Alive: true},
			{ID: "00000000-0000-0000-0000-000000000003", Name: "host2", Alive: false},
		},
	}
}

// newTestRunner serves an emulator and returns a runner wired to it.
func newTestRunner(t *testing.T, cfg emulator.Config) (*Runner, *emulator.Server) {
	t.Helper()

	srv, err := emulator.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := sdk.NewClient(sdk.ClientConfig{
		BaseURL:       ts.URL + emulator.DefaultPrefix,
		RetryAttempts: -1,
		RetryWaitMin:  time.Millisecond,
		RetryWaitMax:  time.Millisecond,
	})
	require.NoError(t, err)

	r, err := New(client, zaptest.NewLogger(t))
	require.NoError(t, err)
	r.wait = func(context.Context) {}

	return r, srv
}

func storeCount(t *testing.T, srv *emulator.Server) int {
	t.Helper()
	n, err := srv.Store().Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestRun_Success(t *testing.T) {
	r, srv := newTestRunner(t, scenarioConfig())
	successes := testutil.ToFloat64(metrics.ApplyResults.WithLabelValues(ResultSuccess))
	rules := testutil.ToFloat64(metrics.ResourcesCreated.WithLabelValues(string(models.KindRule)))

	res, err := r.Run(context.Background(), Options{BlueprintPath: scenario})
	require.NoError(t, err)

	assert.Equal(t, 53, res.Created)
	assert.False(t, res.RolledBack)
	assert.Equal(t, 53, storeCount(t, srv))

	assert.Equal(t, successes+1, testutil.ToFloat64(metrics.ApplyResults.WithLabelValues(ResultSuccess)))
	assert.Equal(t, rules+10, testutil.ToFloat64(metrics.ResourcesCreated.WithLabelValues(string(models.KindRule))))
}

func TestRun_FailureRollsBack(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Faults = []emulator.FailOn{{Kind: models.KindBGP, Nth: 2}}
	r, srv := newTestRunner(t, cfg)

	undone := testutil.ToFloat64(metrics.ResourcesRolledBack.WithLabelValues("success"))
	rolledBack := testutil.ToFloat64(metrics.ApplyResults.WithLabelValues(ResultRolledBack))

	res, err := r.Run(context.Background(), Options{BlueprintPath: scenario})
	require.Error(t, err)
	assert.ErrorIs(t, err, sdk.ErrServerError)

	var rerr *topology.RealizationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, models.KindBGP, rerr.Kind)

	require.NotNil(t, res)
	assert.Equal(t, 50, res.Created)
	assert.True(t, res.RolledBack)
	assert.Zero(t, storeCount(t, srv), "every created resource is deleted")

	assert.Equal(t, undone+50, testutil.ToFloat64(metrics.ResourcesRolledBack.WithLabelValues("success")))
	assert.Equal(t, rolledBack+1, testutil.ToFloat64(metrics.ApplyResults.WithLabelValues(ResultRolledBack)))
}

func TestRun_HoldTearsDown(t *testing.T) {
	r, srv := newTestRunner(t, scenarioConfig())

	held := false
	r.wait = func(context.Context) {
		held = true
		assert.Equal(t, 53, storeCount(t, srv))
	}

	res, err := r.Run(context.Background(), Options{BlueprintPath: scenario, Hold: true})
	require.NoError(t, err)

	assert.True(t, held)
	assert.True(t, res.RolledBack)
	assert.Zero(t, storeCount(t, srv))
}

func TestRun_HoldEndsWithContext(t *testing.T) {
	r, srv := newTestRunner(t, scenarioConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.wait = func(ctx context.Context) {
		time.AfterFunc(10*time.Millisecond, cancel)
		r.waitForSignal(ctx)
	}

	res, err := r.Run(ctx, Options{BlueprintPath: scenario, Hold: true})
	require.NoError(t, err)
	assert.True(t, res.RolledBack)
	assert.Zero(t, storeCount(t, srv), "rollback runs after cancellation")
}

func TestRun_UnknownTenant(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Tenants = cfg.Tenants[:2]
	r, srv := newTestRunner(t, cfg)

	res, err := r.Run(context.Background(), Options{BlueprintPath: scenario})
	require.Error(t, err)
	assert.Nil(t, res)

	var rerr *topology.ResolutionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "tenant", rerr.Kind)
	assert.Equal(t, "midonet_provider", rerr.Name)
	assert.ErrorIs(t, err, models.ErrTenantNotFound)
	assert.Zero(t, storeCount(t, srv), "nothing is created")
}

func TestRun_UnknownHost(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Hosts = cfg.Hosts[1:]
	r, srv := newTestRunner(t, cfg)

	_, err := r.Run(context.Background(), Options{BlueprintPath: scenario})
	assert.ErrorIs(t, err, models.ErrHostNotFound)
	assert.Zero(t, storeCount(t, srv))
}

func TestRun_MetricsFile(t *testing.T) {
	r, _ := newTestRunner(t, scenarioConfig())
	path := t.TempDir() + "/topoctl.prom"

	_, err := r.Run(context.Background(), Options{BlueprintPath: scenario, MetricsFile: path})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRun_MissingBlueprint(t *testing.T) {
	r, _ := newTestRunner(t, scenarioConfig())

	_, err := r.Run(context.Background(), Options{BlueprintPath: "testdata/missing.yaml"})
	assert.Error(t, err)
}

func TestNew_NilController(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	r, srv := newTestRunner(t, scenarioConfig())

	report, err := r.Check(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"tenant0": "t-0", "tenant1": "t-1", "midonet_provider": "t-p"}, report.TenantIDs)
	assert.Equal(t, []string{"00000000-0000-0000-0000-000000000003"}, report.DeadHosts)
	assert.Equal(t, 53, report.Resources)
	assert.Len(t, report.Steps, 10)
	assert.Zero(t, storeCount(t, srv))
}
