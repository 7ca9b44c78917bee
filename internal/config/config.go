package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
// Все секции имеют рабочие значения по умолчанию (см. Default).
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Generation GenerationConfig `yaml:"generation"`
	Mesh       MeshConfig       `yaml:"mesh"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// WorldConfig задаёт геометрию мира: размеры чанка и размер сетки
// идентификаторов. GridSize определяет основание системы счисления при
// линеаризации координат чанка в скалярный id; максимальная поддерживаемая
// протяжённость мира составляет GridSize/2 чанков по каждой оси в каждую
// сторону от нуля.
type WorldConfig struct {
	ChunkWidth  int   `yaml:"chunk_width"`
	ChunkHeight int   `yaml:"chunk_height"`
	ChunkDepth  int   `yaml:"chunk_depth"`
	GridSize    int64 `yaml:"grid_size"`
}

// GenerationConfig параметры процедурной генерации ландшафта
type GenerationConfig struct {
	Seed           int64   `yaml:"seed"`
	FrequencyScale float64 `yaml:"frequency_scale"`
	AmplitudeScale float64 `yaml:"amplitude_scale"`
	Threshold      float64 `yaml:"threshold"`
	Octaves        int     `yaml:"octaves"`
	Persistence    float64 `yaml:"persistence"`
}

// MeshConfig параметры построения мешей
type MeshConfig struct {
	OcclusionCulling bool    `yaml:"occlusion_culling"`
	LODEnabled       bool    `yaml:"lod_enabled"`
	LODDistance      float64 `yaml:"lod_distance"` // расстояние в чанках на один уровень LOD
	LODMax           int     `yaml:"lod_max"`
}

// DiscoveryConfig параметры обнаружения чанков вокруг камеры
type DiscoveryConfig struct {
	Radius        int     `yaml:"radius"`         // горизонтальный радиус в чанках
	RadiusHeight  int     `yaml:"radius_height"`  // вертикальный радиус в чанках
	UseFrustum    bool    `yaml:"use_frustum"`    // фильтровать чанки по пирамиде видимости
	FrustumMargin float64 `yaml:"frustum_margin"` // запас при проверке полупространств
	DrainLimit    int     `yaml:"drain_limit"`    // максимум действий, запускаемых за тик
	BusyResetMs   int     `yaml:"busy_reset_ms"`  // интервал очистки списка недавно отправленных координат
	Workers       int     `yaml:"workers"`        // размер пула фоновых воркеров
	QueueSize     int     `yaml:"queue_size"`     // ёмкость очереди задач
}

// ArchiveConfig параметры архивации далёких чанков
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`
	Radius  int  `yaml:"radius"` // в чанках; должен превышать discovery.radius
}

// MetricsConfig параметры экспорта метрик Prometheus
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// GetMetricsPort возвращает порт метрик с приоритетом: config -> env -> default
func (m *MetricsConfig) GetMetricsPort() int {
	if m.Port > 0 {
		return m.Port
	}

	if envVal := os.Getenv("VOXEL_METRICS_PORT"); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return 2112
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			ChunkWidth:  16,
			ChunkHeight: 16,
			ChunkDepth:  16,
			GridSize:    1024,
		},
		Generation: GenerationConfig{
			Seed:           1337,
			FrequencyScale: 0.1,
			AmplitudeScale: 5.0,
			Threshold:      2.0,
			Octaves:        4,
			Persistence:    0.5,
		},
		Mesh: MeshConfig{
			OcclusionCulling: true,
			LODEnabled:       false,
			LODDistance:      4.0,
			LODMax:           3,
		},
		Discovery: DiscoveryConfig{
			Radius:        6,
			RadiusHeight:  2,
			UseFrustum:    false,
			FrustumMargin: 16.0,
			DrainLimit:    24,
			BusyResetMs:   150,
			Workers:       4,
			QueueSize:     256,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Radius:  12,
		},
		Metrics: MetricsConfig{Port: 0},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG; если и он пуст,
// возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет конфигурацию на вырожденные значения.
// Ошибки конфигурации должны останавливать запуск, а не всплывать
// посреди конвейера.
func (c *Config) Validate() error {
	if c.World.ChunkWidth <= 0 || c.World.ChunkHeight <= 0 || c.World.ChunkDepth <= 0 {
		return fmt.Errorf("размеры чанка должны быть положительными, получено %dx%dx%d",
			c.World.ChunkWidth, c.World.ChunkHeight, c.World.ChunkDepth)
	}
	if c.World.GridSize < 2 {
		return fmt.Errorf("grid_size должен быть не меньше 2, получено %d", c.World.GridSize)
	}

	// Радиус обнаружения и архивации не должны выводить координаты за
	// пределы поддерживаемого id-пространства: иначе два разных чанка
	// получат один и тот же идентификатор.
	maxRadius := c.Discovery.Radius
	if c.Discovery.RadiusHeight > maxRadius {
		maxRadius = c.Discovery.RadiusHeight
	}
	if c.Archive.Enabled && c.Archive.Radius > maxRadius {
		maxRadius = c.Archive.Radius
	}
	if int64(maxRadius) >= c.World.GridSize/2 {
		return fmt.Errorf("радиус %d не помещается в id-пространство grid_size=%d (максимум %d чанков от центра)",
			maxRadius, c.World.GridSize, c.World.GridSize/2-1)
	}

	if c.Discovery.Radius < 0 || c.Discovery.RadiusHeight < 0 {
		return fmt.Errorf("радиусы обнаружения не могут быть отрицательными")
	}
	if c.Discovery.DrainLimit <= 0 {
		return fmt.Errorf("drain_limit должен быть положительным, получено %d", c.Discovery.DrainLimit)
	}
	if c.Discovery.Workers <= 0 {
		return fmt.Errorf("workers должен быть положительным, получено %d", c.Discovery.Workers)
	}
	if c.Discovery.QueueSize <= 0 {
		return fmt.Errorf("queue_size должен быть положительным, получено %d", c.Discovery.QueueSize)
	}

	if c.Generation.Octaves < 1 {
		return fmt.Errorf("octaves должен быть не меньше 1, получено %d", c.Generation.Octaves)
	}
	if c.Generation.Persistence <= 0 {
		return fmt.Errorf("persistence должен быть положительным, получено %f", c.Generation.Persistence)
	}

	if c.Mesh.LODEnabled {
		if c.Mesh.LODDistance <= 0 {
			return fmt.Errorf("lod_distance должен быть положительным, получено %f", c.Mesh.LODDistance)
		}
		if c.Mesh.LODMax < 0 {
			return fmt.Errorf("lod_max не может быть отрицательным, получено %d", c.Mesh.LODMax)
		}
	}

	if c.Archive.Enabled && c.Archive.Radius <= c.Discovery.Radius {
		return fmt.Errorf("archive.radius (%d) должен превышать discovery.radius (%d)",
			c.Archive.Radius, c.Discovery.Radius)
	}

	return nil
}
