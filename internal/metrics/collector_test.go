package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// nextTestNamespace keeps each test's metrics apart in the default
// registry, which rejects duplicate registrations.
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.llmRequestsTotal)
	assert.NotNil(t, collector.agentInvocationsTotal)
	assert.NotNil(t, collector.tasksSubmittedTotal)
	assert.NotNil(t, collector.storeOperationDuration)
}

func TestCollectorRecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("GET", "/api/v1/tasks", 200, 100*time.Millisecond, 1024, 2048)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("GET", "/api/v1/tasks", 200, 50*time.Millisecond, 512, 1024)
	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.GreaterOrEqual(t, newCount, count)
}

func TestCollectorRecordLLMRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordLLMRequest("openai", "gpt-4o", "success", 500*time.Millisecond, 100, 50)

	assert.Greater(t, testutil.CollectAndCount(collector.llmRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.llmTokensUsed), 0)
}

func TestCollectorTaskMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordTaskSubmitted("hr_agent")
	collector.TaskStarted()
	collector.RecordStep("hr_agent", "completed")
	collector.RecordTaskFinished("completed", 2*time.Second)
	collector.TaskStopped()

	assert.Greater(t, testutil.CollectAndCount(collector.tasksSubmittedTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.tasksFinishedTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.taskStepsTotal), 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(collector.activeTasks))
}

func TestCollectorRoutingAndStore(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRouting("tech_agent", "keyword")
	collector.RecordStoreOperation("mongo", "save_task", 10*time.Millisecond)
	collector.RecordStoreRetry("mongo", "save_task")

	assert.Greater(t, testutil.CollectAndCount(collector.routingTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.storeOperationDuration), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.storeRetriesTotal), 0)
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{100, "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusCode(tc.code), "code %d", tc.code)
	}
}
