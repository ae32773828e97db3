package metrics

import (
	"fmt"
	"time"

	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bizplan"

// Recorder は生成処理の結果をメトリクスとして記録します。nil の Recorder は何もしません。
type Recorder struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	generationsActive  prometheus.Gauge
	images             *prometheus.CounterVec
	imagesPerRun       prometheus.Histogram
	probes             *prometheus.CounterVec
}

// NewRecorder は専用のレジストリにメトリクスを登録した Recorder を作成します。
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of business plan generations by outcome",
			},
			[]string{"outcome"},
		),
		generationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of business plan generation in seconds",
				Buckets:   []float64{5, 15, 30, 60, 120, 180, 300, 600},
			},
		),
		generationsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "generations_active",
				Help:      "Number of generations in progress",
			},
		),
		images: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_prompts_total",
				Help:      "Total number of image prompts by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		imagesPerRun: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "images_per_generation",
				Help:      "Number of images delivered per successful generation",
				Buckets:   prometheus.LinearBuckets(0, 1, 6),
			},
		),
		probes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_probes_total",
				Help:      "Total number of credential liveness probes by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Registry はメトリクスを登録したレジストリを返します。
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// GenerationStarted は実行中の生成数を1つ増やし、終了時に呼ぶ関数を返します。
func (r *Recorder) GenerationStarted() func() {
	if r == nil {
		return func() {}
	}
	r.generationsActive.Inc()
	return r.generationsActive.Dec
}

// ObserveGeneration は1回の生成の結果と所要時間、届けた画像数を記録します。
func (r *Recorder) ObserveGeneration(err error, elapsed time.Duration, images int) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(domain.ErrorKind(err)).Inc()
	r.generationDuration.Observe(elapsed.Seconds())
	if err == nil {
		r.imagesPerRun.Observe(float64(images))
	}
}

// ObserveImage は画像プロンプト1件の結果を記録します。
func (r *Recorder) ObserveImage(kind domain.ImageKind, err error) {
	if r == nil {
		return
	}
	r.images.WithLabelValues(string(kind), domain.ErrorKind(err)).Inc()
}

// ObserveProbe はキーの疎通確認の結果を記録します。
func (r *Recorder) ObserveProbe(err error) {
	if r == nil {
		return
	}
	r.probes.WithLabelValues(domain.ErrorKind(err)).Inc()
}

// WriteToTextfile は現在の値を Prometheus のテキスト形式で path に書き出します。
func (r *Recorder) WriteToTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("メトリクスの書き出しに失敗しました: %w", err)
	}
	return nil
}
