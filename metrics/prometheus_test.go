package metrics

import (
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	metricFamilies, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	families := make(map[string]*dto.MetricFamily)
	for _, mf := range metricFamilies {
		families[mf.GetName()] = mf
	}
	return families
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	count := Counter("count1")
	gauge := Gauge("gauge1")
	countVec := CounterVec("countVec1", []string{"kind"})

	count.Add(2)
	Counter("count1").Add(3)
	gauge.Set(7)
	Gauge("gauge1").Set(5)
	countVec.AddWithLabel(1, map[string]string{"kind": "a"})
	countVec.AddWithLabel(4, map[string]string{"kind": "b"})

	families := gather(t)
	require.Equal(t, float64(5), families["launchpad_count1"].Metric[0].GetCounter().GetValue())
	require.Equal(t, float64(5), families["launchpad_gauge1"].Metric[0].GetGauge().GetValue())
	require.Len(t, families["launchpad_countVec1"].Metric, 2)
}

func TestObserveCommand(t *testing.T) {
	InitializePrometheusMetrics()

	ObserveCommand("presale", "buy", "executed", 3*time.Millisecond)
	ObserveCommand("presale", "buy", "executed", 4*time.Millisecond)
	ObserveCommand("presale", "buy", "rejected", time.Millisecond)

	families := gather(t)
	total := families["launchpad_commands_total"]
	require.NotNil(t, total)
	var executed float64
	for _, m := range total.Metric {
		for _, l := range m.Label {
			if l.GetName() == "status" && l.GetValue() == "executed" {
				executed = m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(2), executed)

	hist := families["launchpad_command_duration_ms"]
	require.NotNil(t, hist)
	require.Equal(t, uint64(3), hist.Metric[0].GetHistogram().GetSampleCount())

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.True(t, strings.Contains(rec.Body.String(), "launchpad_commands_total"))
}

func TestPresaleMeters(t *testing.T) {
	InitializePrometheusMetrics()

	SetPresaleStage(1)
	SetPresaleStage(2)
	AddTokensSold(40)
	AddTokensSold(2)

	families := gather(t)
	require.Equal(t, float64(2), families["launchpad_presale_stage"].Metric[0].GetGauge().GetValue())
	require.Equal(t, float64(42), families["launchpad_presale_tokens_sold_total"].Metric[0].GetCounter().GetValue())

	AddTokensSold(math.MaxUint64)
	families = gather(t)
	require.InDelta(t, float64(math.MaxUint64), families["launchpad_presale_tokens_sold_total"].Metric[0].GetCounter().GetValue(), 1e6)
}
