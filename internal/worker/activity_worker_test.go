package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/tour-booking/internal/events"
	"github.com/spec-kit/tour-booking/internal/observability"
)

func TestActivityWorkerRecordsEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	NewActivityWorker(dispatcher, zap.New(core), metrics).Start()

	ctx := context.Background()
	dispatcher.Publish(ctx, events.Event{Type: events.EventSessionStarted, Timestamp: time.Now(),
		Payload: events.SessionStartedPayload{UserID: 4, Role: "user"}})
	dispatcher.Publish(ctx, events.Event{Type: events.EventSessionDestroyed, Timestamp: time.Now(),
		Payload: events.SessionDestroyedPayload{Reason: events.ReasonExpired}})
	dispatcher.Publish(ctx, events.Event{Type: events.EventCartCleared, Timestamp: time.Now()})

	assert.Equal(t, 1, logs.FilterMessage("SessionDestroyed").FilterField(zap.String("reason", "expired")).Len())

	expected := `
# HELP tourbooking_client_events_total Session, cart and coupon events by type and detail.
# TYPE tourbooking_client_events_total counter
tourbooking_client_events_total{detail="",type="cart.cleared"} 1
tourbooking_client_events_total{detail="expired",type="session.destroyed"} 1
tourbooking_client_events_total{detail="user",type="session.started"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tourbooking_client_events_total"))
}

func TestStartToleratesMissingDispatcher(t *testing.T) {
	assert.NotPanics(t, func() { NewActivityWorker(nil, nil, nil).Start() })
}
