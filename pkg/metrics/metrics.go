package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// rowsTotal partitions per-row outcomes by job name so one collector serves
// every batch job.
var rowsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "cjms",
		Name:      "job_rows_total",
		Help:      "Per-row outcomes of batch job passes, partitioned by job and outcome.",
	},
	[]string{"job", "outcome"},
)

func init() {
	prometheus.MustRegister(rowsTotal)
}

// JobCounters tracks per-row outcomes for a single job run. Counts feed the
// prometheus collector and are also kept locally so a one-shot process can log
// its totals before exiting.
type JobCounters struct {
	job    string
	counts map[string]int
}

func NewJobCounters(job string) *JobCounters {
	return &JobCounters{job: job, counts: map[string]int{}}
}

func (c *JobCounters) Inc(outcome string) {
	rowsTotal.WithLabelValues(c.job, outcome).Inc()
	c.counts[outcome]++
}

func (c *JobCounters) Count(outcome string) int {
	return c.counts[outcome]
}

// LogSummary emits one line with every outcome seen during the run.
func (c *JobCounters) LogSummary(log *zap.SugaredLogger) {
	outcomes := make([]string, 0, len(c.counts))
	for k := range c.counts {
		outcomes = append(outcomes, k)
	}
	sort.Strings(outcomes)
	fields := []interface{}{"job", c.job}
	for _, k := range outcomes {
		fields = append(fields, k, c.counts[k])
	}
	log.Infow("job_counters", fields...)
}
