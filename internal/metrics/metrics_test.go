package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCheckin(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		failed bool
		labels []string
	}{
		{name: "success", labels: []string{ResultOK, ""}},
		{name: "at capacity", reason: "at_capacity", labels: []string{ResultRejected, "at_capacity"}},
		{name: "store down", reason: "store_unavailable", failed: true, labels: []string{ResultError, "store_unavailable"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CheckinsTotal.WithLabelValues(tt.labels...)
			before := testutil.ToFloat64(c)
			RecordCheckin(tt.reason, tt.failed)
			assert.Equal(t, before+1, testutil.ToFloat64(c))
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("POST", "/api/v1/checkins", "201")
	before := testutil.ToFloat64(c)

	RecordAPIRequest("POST", "/api/v1/checkins", "201", 15*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, before+1, testutil.ToFloat64(APIActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, before, testutil.ToFloat64(APIActiveRequests))
}

func TestSetActiveSessions(t *testing.T) {
	SetActiveSessions(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(ActiveSessions))
}

func TestRecordCacheLookup(t *testing.T) {
	hit := CacheLookupsTotal.WithLabelValues("policy", "hit")
	miss := CacheLookupsTotal.WithLabelValues("policy", "miss")
	hitBefore, missBefore := testutil.ToFloat64(hit), testutil.ToFloat64(miss)

	RecordCacheLookup("policy", true)
	RecordCacheLookup("policy", false)
	RecordCacheLookup("policy", false)

	assert.Equal(t, hitBefore+1, testutil.ToFloat64(hit))
	assert.Equal(t, missBefore+2, testutil.ToFloat64(miss))
}

func TestRecordReminderAndEmail(t *testing.T) {
	okReminder := RemindersPublishedTotal.WithLabelValues("unpaid", ResultOK)
	failedEmail := EmailsSentTotal.WithLabelValues(ResultError)
	r0, e0 := testutil.ToFloat64(okReminder), testutil.ToFloat64(failedEmail)

	RecordReminder("unpaid", nil)
	RecordEmail(errors.New("smtp down"))

	assert.Equal(t, r0+1, testutil.ToFloat64(okReminder))
	assert.Equal(t, e0+1, testutil.ToFloat64(failedEmail))
}
