package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-stream/internal/config"
	"github.com/annel0/voxel-stream/internal/eventbus"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
)

// flyCamera камера со скриптованным полётом: движется вперёд и медленно
// поворачивается, чтобы прогонять конвейер через загрузку и выгрузку чанков.
type flyCamera struct {
	position vec.Vec3Float
	yaw      float64

	useFrustum bool
	margin     float64
}

// Position возвращает мировую позицию камеры
func (c *flyCamera) Position() vec.Vec3Float {
	return c.position
}

// Frustum возвращает пирамиду видимости камеры
func (c *flyCamera) Frustum() (world.Frustum, bool) {
	if !c.useFrustum {
		return world.Frustum{}, false
	}

	const (
		fovY   = math.Pi / 3
		aspect = 16.0 / 9.0
		near   = 0.1
		far    = 512.0
	)
	up := vec.Vec3Float{Y: 1}
	return world.NewPerspectiveFrustum(c.position, c.forward(), up, fovY, aspect, near, far, c.margin), true
}

// forward возвращает направление взгляда камеры
func (c *flyCamera) forward() vec.Vec3Float {
	return vec.Vec3Float{X: math.Cos(c.yaw), Z: math.Sin(c.yaw)}
}

// advance продвигает камеру на один тик полёта
func (c *flyCamera) advance() {
	c.position = c.position.Add(c.forward().Scale(0.25))
	c.yaw += 0.0005
}

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию ENV VOXEL_CONFIG)")
	duration := flag.Duration("duration", 0, "длительность полёта (0 — до сигнала)")
	flag.Parse()

	if err := logging.Init(); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.Close()

	logging.Info("🧊 Запуск просмотрщика воксельного мира...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Error("❌ Некорректная конфигурация: %v", err)
		log.Fatalf("❌ Некорректная конфигурация: %v", err)
	}

	logging.Info("📐 Мир: чанк %dx%dx%d, сетка %d, радиус обнаружения %d",
		cfg.World.ChunkWidth, cfg.World.ChunkHeight, cfg.World.ChunkDepth,
		cfg.World.GridSize, cfg.Discovery.Radius)

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===

	chunkDims := vec.Vec3{X: cfg.World.ChunkWidth, Y: cfg.World.ChunkHeight, Z: cfg.World.ChunkDepth}
	registry := world.NewChunkRegistry(chunkDims, cfg.World.GridSize)

	generator := world.NewGenerator(world.GenerationSettings{
		Seed:           cfg.Generation.Seed,
		FrequencyScale: cfg.Generation.FrequencyScale,
		AmplitudeScale: cfg.Generation.AmplitudeScale,
		Threshold:      cfg.Generation.Threshold,
		Octaves:        cfg.Generation.Octaves,
		Persistence:    cfg.Generation.Persistence,
	})

	mesher := world.NewMesher(world.MeshSettings{
		OcclusionCulling: cfg.Mesh.OcclusionCulling,
	})

	discovery := world.NewDiscovery(world.DiscoverySettings{
		Radius:       cfg.Discovery.Radius,
		RadiusHeight: cfg.Discovery.RadiusHeight,
		UseFrustum:   cfg.Discovery.UseFrustum,
		LODEnabled:   cfg.Mesh.LODEnabled,
		LODDistance:  cfg.Mesh.LODDistance,
		LODMax:       cfg.Mesh.LODMax,
	}, registry)

	scheduler := world.NewScheduler(cfg.Discovery.Workers, cfg.Discovery.QueueSize)

	var archiver *world.VoxelArchiver
	if cfg.Archive.Enabled {
		archiver, err = world.NewVoxelArchiver()
		if err != nil {
			logging.Error("❌ Ошибка создания архиватора: %v", err)
			log.Fatalf("❌ Ошибка создания архиватора: %v", err)
		}
	}

	bus := eventbus.NewMemoryBus(1024)
	metrics := world.NewPipelineMetrics()
	metrics.StartHTTP(fmt.Sprintf(":%d", cfg.Metrics.GetMetricsPort()))

	// Все события жизненного цикла уходят в файловый лог.
	_, err = bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		logging.Trace("Событие %s: (%s, %s, %s)", ev.EventType, ev.Metadata["x"], ev.Metadata["y"], ev.Metadata["z"])
	})
	if err != nil {
		logging.Warn("Не удалось подписаться на события: %v", err)
	}

	sink := world.NewMemoryRenderSink()

	pipeline := world.NewPipeline(world.PipelineSettings{
		DrainLimit:         cfg.Discovery.DrainLimit,
		BusyReset:          time.Duration(cfg.Discovery.BusyResetMs) * time.Millisecond,
		UnloadRadius:       cfg.Discovery.Radius,
		UnloadRadiusHeight: cfg.Discovery.RadiusHeight,
		ArchiveEnabled:     cfg.Archive.Enabled,
		ArchiveRadius:      cfg.Archive.Radius,
	}, world.PipelineDeps{
		Registry:  registry,
		Discovery: discovery,
		Scheduler: scheduler,
		Generator: generator,
		Mesher:    mesher,
		Archiver:  archiver,
		Meshes:    world.NewMemoryMeshStore(),
		Sink:      sink,
		Bus:       bus,
		Metrics:   metrics,
	})

	camera := &flyCamera{
		position:   vec.Vec3Float{Y: 8},
		useFrustum: cfg.Discovery.UseFrustum,
		margin:     cfg.Discovery.FrustumMargin,
	}

	logging.Info("✅ Конвейер запущен, камера в полёте")

	// === ГЛАВНЫЙ ЦИКЛ ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	reportTicker := time.NewTicker(5 * time.Second)
	defer reportTicker.Stop()

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

loop:
	for {
		select {
		case <-sigCh:
			logging.Info("📡 Получен сигнал, завершение работы...")
			break loop
		case <-deadline:
			logging.Info("⏱️  Длительность полёта истекла, завершение работы...")
			break loop
		case <-reportTicker.C:
			stats := bus.Metrics()
			logging.Info("📊 Чанков: %d, видимо: %d, в очереди действий: %d, событий опубликовано: %d",
				registry.Len(), sink.VisibleCount(), pipeline.PendingActions(), stats.Published)
		case now := <-ticker.C:
			camera.advance()
			pipeline.Tick(camera, now)
		}
	}

	// === GRACEFUL SHUTDOWN ===

	pipeline.Shutdown()
	logging.Info("✅ Просмотрщик остановлен")
}
