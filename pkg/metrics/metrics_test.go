package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("tgraph")
	require.NoError(t, c.Register(reg))

	t.Run("twice reports every duplicate", func(t *testing.T) {
		err := c.Register(reg)
		require.Error(t, err)
		var already prometheus.AlreadyRegisteredError
		assert.ErrorAs(t, err, &already)
	})
}

func TestCollector_ObserveCommit(t *testing.T) {
	c := NewCollector("tgraph")

	c.ObserveCommit(ResultCommitted, 2*time.Millisecond)
	c.ObserveCommit(ResultCommitted, time.Millisecond)
	c.ObserveCommit(ResultFailed, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.CommitsTotal.WithLabelValues(ResultCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CommitsTotal.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.CommitDuration))
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("tgraph")

	c.AddStagedOps("new_node", 3)
	c.AddStagedOps("new_node", 0)
	c.AddStagedOps("remove_node", 1)
	c.AddMirrorEdits(MirrorAdd, 4)
	c.AddMirrorEdits(MirrorRemove, 2)
	c.SetLiveNodes(7)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.StagedOpsTotal.WithLabelValues("new_node")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StagedOpsTotal.WithLabelValues("remove_node")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.MirrorEditTotal.WithLabelValues(MirrorAdd)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.MirrorEditTotal.WithLabelValues(MirrorRemove)))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.LiveNodes))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveCommit(ResultCommitted, time.Second)
		c.AddStagedOps("update_node", 1)
		c.AddMirrorEdits(MirrorAdd, 1)
		c.SetLiveNodes(1)
	})
}
