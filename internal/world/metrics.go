package world

import (
	"net/http"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics инкапсулирует Prometheus-метрики конвейера чанков.
// Все методы безопасны на nil-приёмнике: конвейер без метрик работает
// без дополнительных проверок в горячем пути.
type PipelineMetrics struct {
	chunksRegistered prometheus.Gauge
	chunksVisible    prometheus.Gauge
	tasksInflight    prometheus.Gauge

	generated prometheus.Counter
	meshed    prometheus.Counter
	drawn     prometheus.Counter
	hidden    prometheus.Counter
	archived  prometheus.Counter
	restored  prometheus.Counter
	taskFails prometheus.Counter

	tickDuration prometheus.Histogram
}

// NewPipelineMetrics создаёт и регистрирует метрики в глобальном регистре
// Prometheus. Вызывать не более одного раза на процесс.
func NewPipelineMetrics() *PipelineMetrics {
	m := &PipelineMetrics{
		chunksRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "chunks_registered",
			Help:      "Количество чанков в реестре.",
		}),
		chunksVisible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "chunks_visible",
			Help:      "Количество видимых чанков.",
		}),
		tasksInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "tasks_inflight",
			Help:      "Фоновые задачи, отправленные и ещё не применённые.",
		}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_generated_total",
			Help:      "Общее число заполненных генератором чанков.",
		}),
		meshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_meshed_total",
			Help:      "Общее число построенных мешей.",
		}),
		drawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_drawn_total",
			Help:      "Общее число показов чанков.",
		}),
		hidden: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_hidden_total",
			Help:      "Общее число скрытий чанков.",
		}),
		archived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_archived_total",
			Help:      "Общее число архиваций воксельных буферов.",
		}),
		restored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_restored_total",
			Help:      "Общее число распаковок архивированных буферов.",
		}),
		taskFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "task_failures_total",
			Help:      "Фоновые задачи, завершившиеся ошибкой.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика конвейера.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	prometheus.MustRegister(
		m.chunksRegistered, m.chunksVisible, m.tasksInflight,
		m.generated, m.meshed, m.drawn, m.hidden,
		m.archived, m.restored, m.taskFails, m.tickDuration,
	)
	return m
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе
// (например, ":2112"). Метод неблокирующий.
func (m *PipelineMetrics) StartHTTP(addr string) {
	if m == nil {
		return
	}
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
}

// ObserveTick фиксирует длительность тика в секундах
func (m *PipelineMetrics) ObserveTick(seconds float64) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(seconds)
}

// SetGauges обновляет мгновенные показатели конвейера
func (m *PipelineMetrics) SetGauges(registered, visible int, inflight int64) {
	if m == nil {
		return
	}
	m.chunksRegistered.Set(float64(registered))
	m.chunksVisible.Set(float64(visible))
	m.tasksInflight.Set(float64(inflight))
}

// IncGenerated увеличивает счётчик заполненных чанков
func (m *PipelineMetrics) IncGenerated() {
	if m != nil {
		m.generated.Inc()
	}
}

// IncMeshed увеличивает счётчик построенных мешей
func (m *PipelineMetrics) IncMeshed() {
	if m != nil {
		m.meshed.Inc()
	}
}

// IncDrawn увеличивает счётчик показов
func (m *PipelineMetrics) IncDrawn() {
	if m != nil {
		m.drawn.Inc()
	}
}

// IncHidden увеличивает счётчик скрытий
func (m *PipelineMetrics) IncHidden() {
	if m != nil {
		m.hidden.Inc()
	}
}

// IncArchived увеличивает счётчик архиваций
func (m *PipelineMetrics) IncArchived() {
	if m != nil {
		m.archived.Inc()
	}
}

// IncRestored увеличивает счётчик распаковок
func (m *PipelineMetrics) IncRestored() {
	if m != nil {
		m.restored.Inc()
	}
}

// IncTaskFailure увеличивает счётчик ошибок фоновых задач
func (m *PipelineMetrics) IncTaskFailure() {
	if m != nil {
		m.taskFails.Inc()
	}
}
