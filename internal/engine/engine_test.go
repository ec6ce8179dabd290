package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edushield/edushield/internal/audit"
	"github.com/edushield/edushield/internal/filter"
	"github.com/edushield/edushield/internal/freshness"
	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/packet"
	"github.com/edushield/edushield/internal/policy"
	"github.com/edushield/edushield/internal/registry"
	"github.com/edushield/edushield/internal/sisdata"
	"github.com/edushield/edushield/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *audit.Pipeline, *audit.MemorySink) {
	t.Helper()
	logger := testutil.Logger(t)
	reg := registry.New()
	tables := policy.DefaultTables()
	mem := audit.NewMemorySink()
	pipe := audit.NewPipeline(logger, mem)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	pipe.Start(ctx)
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		pipe.Stop(stopCtx)
	})

	eng := New(Config{
		Registry: reg,
		Policy:   policy.New(reg, tables, logger),
		Filter:   filter.New(reg, tables, logger),
		Tracker:  freshness.NewTracker(),
		Pipeline: pipe,
		Memory:   mem,
		Builder: packet.NewBuilder(model.ModelDescriptor{
			ModelID:    "edushield-connector",
			Provider:   "local",
			Compliance: "internal",
			RiskLevel:  "low",
		}),
		Logger: logger,
	})
	return eng, pipe, mem
}

func identity(userID string, role model.Role) model.IdentityScope {
	return model.NewIdentityScope(userID, string(role), model.SessionContext{})
}

func TestProcessStudentGradesDenied(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	res, err := eng.Process(context.Background(), Request{
		Identity:  identity(sisdata.Student1ID, model.RoleStudent),
		Requested: []model.ResourceID{registry.ResourceGrades, registry.ResourceClasses},
		Records:   sisdata.Records(),
	})
	require.NoError(t, err)

	assert.Equal(t, "partial", res.AccessLevel)
	assert.Equal(t, model.DecisionAllowPartial, res.Decision)
	assert.Contains(t, res.DeniedResources, registry.ResourceGrades)

	grades, ok := res.View[registry.ResourceGrades]
	require.True(t, ok)
	assert.True(t, grades.Denied)
	assert.Contains(t, res.Rendered, grades.Marker)

	classes, ok := res.View[registry.ResourceClasses]
	require.True(t, ok)
	assert.False(t, classes.Denied)
	assert.Len(t, classes.Rows, 3)
}

func TestProcessAdminFullAccess(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	res, err := eng.Process(context.Background(), Request{
		Identity:  identity(sisdata.AdminID, model.RoleAdmin),
		Requested: registry.New().IDs(),
		Records:   sisdata.Records(),
	})
	require.NoError(t, err)

	assert.Equal(t, "full", res.AccessLevel)
	assert.Empty(t, res.DeniedResources)
	assert.Len(t, res.Packet.AuthorizedResources, 5)
	// ssn stays masked even for full access
	assert.Contains(t, res.MaskedFields, "ssn")
	assert.NotContains(t, res.Rendered, "211-45-6789")
	assert.Contains(t, res.Rendered, filter.MaskPlaceholder)
}

func TestProcessTeacherFinancialSelfScoped(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	res, err := eng.Process(context.Background(), Request{
		Identity:  identity(sisdata.Teacher1ID, model.RoleTeacher),
		Requested: []model.ResourceID{registry.ResourceFinancial},
		Records:   sisdata.Records(),
	})
	require.NoError(t, err)

	fin, ok := res.View[registry.ResourceFinancial]
	require.True(t, ok)
	require.False(t, fin.Denied)
	assert.NotEmpty(t, fin.Note)
	for _, row := range fin.Rows {
		assert.Equal(t, sisdata.Teacher1ID, row["person_id"])
		assert.Equal(t, filter.MaskFinancialPlaceholder, row["amount"])
	}
}

func TestProcessEmitsExactlyOneAuditEntry(t *testing.T) {
	eng, pipe, mem := newTestEngine(t)

	const n = 8
	traces := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		res, err := eng.Process(context.Background(), Request{
			Identity:  identity(sisdata.Student2ID, model.RoleStudent),
			Requested: []model.ResourceID{registry.ResourceClasses},
			Records:   sisdata.Records(),
		})
		require.NoError(t, err)
		require.False(t, traces[res.TraceID], "trace ids must be unique")
		traces[res.TraceID] = true
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pipe.Stop(stopCtx)

	assert.Equal(t, n, mem.Len())
	for trace := range traces {
		entry, ok := mem.ByTrace(trace)
		require.True(t, ok)
		assert.Equal(t, trace, entry.TraceID)
	}
}

func TestCorrelationByTraceID(t *testing.T) {
	eng, pipe, _ := newTestEngine(t)

	res, err := eng.Process(context.Background(), Request{
		Identity:  identity(sisdata.Teacher2ID, model.RoleTeacher),
		Requested: []model.ResourceID{registry.ResourceGrades, registry.ResourcePersons},
		Records:   sisdata.Records(),
	})
	require.NoError(t, err)

	pkt, ok := eng.PacketByTrace(res.TraceID)
	require.True(t, ok)
	assert.Equal(t, res.TraceID, pkt.TraceID)
	assert.Equal(t, res.Packet.PolicyHash, pkt.PolicyHash)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pipe.Stop(stopCtx)

	entry, ok := eng.AuditByTrace(res.TraceID)
	require.True(t, ok)
	assert.Equal(t, res.TraceID, entry.TraceID)
	assert.Equal(t, sisdata.Teacher2ID, entry.Payload["user_id"])
}

func TestProcessUnknownRoleDeniesEverything(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	res, err := eng.Process(context.Background(), Request{
		Identity:  identity("ghost-1", model.Role("superuser")),
		Requested: []model.ResourceID{registry.ResourcePersons, registry.ResourceGrades},
		Records:   sisdata.Records(),
	})
	require.NoError(t, err)

	assert.Equal(t, "denied", res.AccessLevel)
	assert.Empty(t, res.Packet.AuthorizedResources)
	assert.Len(t, res.DeniedResources, 2)
	for _, view := range res.View {
		assert.True(t, view.Denied)
	}
}

func TestProcessTTLStatusInAuditEntry(t *testing.T) {
	eng, pipe, mem := newTestEngine(t)

	_, err := eng.Process(context.Background(), Request{
		Identity:  identity(sisdata.AdminID, model.RoleAdmin),
		Requested: []model.ResourceID{registry.ResourceFinancial},
		Records:   sisdata.Records(),
	})
	require.NoError(t, err)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pipe.Stop(stopCtx)

	entries := mem.Tail(1)
	require.Len(t, entries, 1)
	ttl, ok := entries[0].Payload["ttl_status"].(map[string]any)
	require.True(t, ok)
	status, ok := ttl[string(registry.ResourceFinancial)].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "refreshed", status["status"])
}

func TestRenderedOutputNeverContainsRawSSN(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	for _, role := range []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleStudent} {
		res, err := eng.Process(context.Background(), Request{
			Identity:  identity("probe-"+string(role), role),
			Requested: registry.New().IDs(),
			Records:   sisdata.Records(),
		})
		require.NoError(t, err)
		for _, ssn := range []string{"211-45-6789", "301-22-8890", "410-55-2231"} {
			assert.False(t, strings.Contains(res.Rendered, ssn),
				"role %s leaked a raw ssn", role)
		}
	}
}
