package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveLedgerCountsQuantity(t *testing.T) {
	before := testutil.ToFloat64(LedgerTokens.WithLabelValues("credit"))
	ObserveLedger("credit", "order_cancel", 4)
	ObserveLedger("credit", "order_cancel", 0)
	require.Equal(t, before+4, testutil.ToFloat64(LedgerTokens.WithLabelValues("credit")))
	require.GreaterOrEqual(t, testutil.ToFloat64(LedgerMutations.WithLabelValues("credit", "order_cancel")), 2.0)
}

func TestObserveHTTPUsesUnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "GET", "404"))
	ObserveHTTP("", "GET", 404, 3*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "GET", "404")))
}

func TestObserveOrderTransitionIgnoresEmptyBatch(t *testing.T) {
	before := testutil.ToFloat64(OrderTransitions.WithLabelValues("delivered", "bulk"))
	ObserveOrderTransition("delivered", "bulk", 0)
	ObserveOrderTransition("delivered", "bulk", 3)
	require.Equal(t, before+3, testutil.ToFloat64(OrderTransitions.WithLabelValues("delivered", "bulk")))
}
