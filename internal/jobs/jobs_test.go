package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/logx"
)

type fakeOrders struct{ at time.Time }

func (f *fakeOrders) RemindPending(_ context.Context, now time.Time) (int, error) {
	f.at = now
	return 3, nil
}

type fakeProxy struct{ err error }

func (f fakeProxy) ExpireOpen(context.Context, time.Time) (int64, error) { return 0, f.err }

type fakeBargains struct{ calls int }

func (f *fakeBargains) ExpirePending(context.Context, time.Time) (int64, error) {
	f.calls++
	return 2, nil
}

type fakeFees struct{ generated, overdue int }

func (f *fakeFees) GenerateMonthly(context.Context, time.Time) (int, error) {
	f.generated++
	return 4, nil
}

func (f *fakeFees) MarkOverdue(context.Context, time.Time) (int64, error) {
	f.overdue++
	return 1, nil
}

func TestRegisterAndRun(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("ICT", 7*3600)
	s := New(loc, logx.New(&buf, loc))
	s.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	orders := &fakeOrders{}
	bargains := &fakeBargains{}
	fees := &fakeFees{}
	require.NoError(t, s.Register(Services{
		Orders:   orders,
		Proxy:    fakeProxy{err: errors.New("mongo down")},
		Bargains: bargains,
		Fees:     fees,
	}))

	assert.Equal(t, []string{
		"expire-bargains", "expire-proxy-requests", "generate-market-fees",
		"mark-overdue-fees", "remind-pending-orders",
	}, s.Names())
	assert.Len(t, s.cron.Entries(), 5)

	ctx := context.Background()
	require.NoError(t, s.Run(ctx, "remind-pending-orders"))
	assert.Equal(t, loc, orders.at.Location())

	require.NoError(t, s.Run(ctx, "expire-bargains"))
	require.NoError(t, s.Run(ctx, "generate-market-fees"))
	require.NoError(t, s.Run(ctx, "mark-overdue-fees"))
	assert.Equal(t, 1, bargains.calls)
	assert.Equal(t, 1, fees.generated)
	assert.Equal(t, 1, fees.overdue)

	assert.EqualError(t, s.Run(ctx, "expire-proxy-requests"), "mongo down")
	assert.Error(t, s.Run(ctx, "nope"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "remind-pending-orders", first["job"])
	assert.Equal(t, float64(3), first["affected"])

	var failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[4]), &failed))
	assert.Equal(t, "error", failed["level"])
}

func TestRegister_SkipsMissingServices(t *testing.T) {
	s := New(nil, logx.New(&bytes.Buffer{}, nil))
	require.NoError(t, s.Register(Services{Bargains: &fakeBargains{}}))

	assert.Equal(t, []string{"expire-bargains"}, s.Names())
}

func TestSpecsParse(t *testing.T) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	from := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

	sched, err := parser.Parse(SpecGenerateFees)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 5, 0, 0, time.UTC), sched.Next(from))

	sched, err = parser.Parse(SpecRemindPending)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC), sched.Next(from))

	for _, spec := range []string{SpecExpireProxy, SpecExpireBargains, SpecMarkOverdueFees} {
		_, err := parser.Parse(spec)
		assert.NoError(t, err, spec)
	}
}
