package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gometrics "github.com/hashicorp/go-metrics"

	"github.com/Aiclear/ait-rredis-cli/pkg/common"
)

var (
	logger = common.InitLogger().WithName("stats")

	instance      Collector
	collectorOnce sync.Once
)

// Collector records per-command client metrics. Implementations must be
// safe for use from the interactive path and the introspection path at
// once.
type Collector interface {
	// IncrCommand bumps the issue counter for a command name.
	IncrCommand(command string)

	// RecordLatency records one end-to-end send/reply latency sample.
	RecordLatency(command string, duration time.Duration)

	// IncrError bumps the counter for an error kind (io, protocol, closed).
	IncrError(kind string)

	// Summary renders the aggregated metrics for the _stats REPL command.
	Summary() string

	// Shutdown flushes and stops the collector.
	Shutdown()
}

// Config holds collector tuning.
type Config struct {
	ServiceName         string
	AggregationInterval time.Duration
	RetentionPeriod     time.Duration
}

// DefaultConfig aggregates over a window long enough to cover an entire
// interactive session.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:         "rredis_cli",
		AggregationInterval: 10 * time.Minute,
		RetentionPeriod:     time.Hour,
	}
}

// NewCollector creates the process-wide collector backed by a
// hashicorp/go-metrics in-memory sink.
func NewCollector(config *Config) (Collector, error) {
	var initErr error
	collectorOnce.Do(func() {
		if config == nil {
			config = DefaultConfig()
		}
		inm := gometrics.NewInmemSink(config.AggregationInterval, config.RetentionPeriod)
		conf := gometrics.DefaultConfig(config.ServiceName)
		conf.EnableHostname = false
		conf.EnableRuntimeMetrics = false
		metricsImpl, err := gometrics.New(conf, inm)
		if err != nil {
			initErr = err
			return
		}
		instance = &inmemCollector{
			metrics:      metricsImpl,
			inm:          inm,
			serviceLabel: gometrics.Label{Name: "service", Value: config.ServiceName},
		}
		logger.V(1).Info("Stats collector initialized", "serviceName", config.ServiceName)
	})
	return instance, initErr
}

type inmemCollector struct {
	metrics      *gometrics.Metrics
	inm          *gometrics.InmemSink
	serviceLabel gometrics.Label
}

func (c *inmemCollector) IncrCommand(command string) {
	c.metrics.IncrCounterWithLabels([]string{"command", "count"}, 1,
		[]gometrics.Label{c.serviceLabel, {Name: "command", Value: command}})
}

func (c *inmemCollector) RecordLatency(command string, duration time.Duration) {
	c.metrics.AddSampleWithLabels([]string{"command", "latency"}, float32(duration.Microseconds()),
		[]gometrics.Label{c.serviceLabel, {Name: "command", Value: command}})
}

func (c *inmemCollector) IncrError(kind string) {
	c.metrics.IncrCounterWithLabels([]string{"errors"}, 1,
		[]gometrics.Label{c.serviceLabel, {Name: "type", Value: kind}})
}

// Summary flattens the current interval into a sorted text block: one line
// per counter, one per latency sample series.
func (c *inmemCollector) Summary() string {
	intervals := c.inm.Data()
	if len(intervals) == 0 {
		return "no stats collected yet"
	}
	latest := intervals[len(intervals)-1]

	var b strings.Builder
	latest.RLock()
	defer latest.RUnlock()

	counterKeys := make([]string, 0, len(latest.Counters))
	for k := range latest.Counters {
		counterKeys = append(counterKeys, k)
	}
	sort.Strings(counterKeys)
	for _, k := range counterKeys {
		v := latest.Counters[k]
		b.WriteString(fmt.Sprintf("%-60s count=%d\n", displayKey(k), v.Count))
	}

	sampleKeys := make([]string, 0, len(latest.Samples))
	for k := range latest.Samples {
		sampleKeys = append(sampleKeys, k)
	}
	sort.Strings(sampleKeys)
	for _, k := range sampleKeys {
		v := latest.Samples[k]
		b.WriteString(fmt.Sprintf("%-60s n=%d mean=%.0fus max=%.0fus\n",
			displayKey(k), v.Count, v.AggregateSample.Mean(), v.Max))
	}
	out := strings.TrimRight(b.String(), "\n")
	if out == "" {
		return "no stats collected yet"
	}
	return out
}

// displayKey strips the service label the collector stamps on every series.
func displayKey(k string) string {
	return strings.ReplaceAll(k, ";service=rredis_cli", "")
}

func (c *inmemCollector) Shutdown() {
	// The inmem sink has nothing to flush.
}
