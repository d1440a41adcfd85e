package metrics

import (
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRecordStaged(t *testing.T) {
	before := testutil.ToFloat64(PendingStaged.WithLabelValues("benefit", "update"))

	RecordStaged("benefit", "update")
	RecordStaged("benefit", "update")

	after := testutil.ToFloat64(PendingStaged.WithLabelValues("benefit", "update"))
	assert.Equal(t, before+2, after)
}

func TestRecordCardsMerged(t *testing.T) {
	before := testutil.ToFloat64(CardsMerged)
	RecordCardsMerged(3)
	assert.Equal(t, before+3, testutil.ToFloat64(CardsMerged))
}
