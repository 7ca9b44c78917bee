package world

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-stream/internal/vec"
)

// TaskKind вид фоновой задачи
type TaskKind int

const (
	// TaskGenerate — заполнение воксельного буфера генератором.
	TaskGenerate TaskKind = iota
	// TaskMesh — построение меша из снимка буфера.
	TaskMesh
	// TaskRestore — распаковка архивированного буфера.
	TaskRestore
)

// String возвращает имя вида задачи
func (k TaskKind) String() string {
	switch k {
	case TaskGenerate:
		return "generate"
	case TaskMesh:
		return "mesh"
	case TaskRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Task единица фоновой работы над одним чанком. Замыкание Run владеет
// только копиями данных чанка и не трогает реестр.
type Task struct {
	Kind   TaskKind
	Coords vec.Vec3
	Run    func() TaskResult
}

// TaskResult результат фоновой задачи. Заполнено ровно одно из полей
// Voxels/Mesh либо Err.
type TaskResult struct {
	Kind   TaskKind
	Coords vec.Vec3
	Voxels []Voxel
	Mesh   *MeshData
	Err    error
}

// Scheduler пул воркеров для фоновых задач чанков. Отправка неблокирующая:
// при заполненной очереди Submit возвращает false и вызывающая сторона
// повторяет попытку на следующем тике. Результаты забираются опросом из
// главного потока.
type Scheduler struct {
	jobs    chan Task
	results chan TaskResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	inflight atomic.Int64
}

// NewScheduler создаёт планировщик с указанным числом воркеров и ёмкостью
// очереди и сразу запускает воркеров.
func NewScheduler(workers, queueSize int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		jobs:    make(chan Task, queueSize),
		results: make(chan TaskResult, queueSize+workers),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// worker исполняет задачи до остановки планировщика
func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case task := <-s.jobs:
			result := task.Run()
			result.Kind = task.Kind
			result.Coords = task.Coords

			select {
			case s.results <- result:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// Submit ставит задачу в очередь без блокировки.
// Возвращает false, если очередь заполнена.
func (s *Scheduler) Submit(task Task) bool {
	select {
	case s.jobs <- task:
		s.inflight.Add(1)
		return true
	default:
		return false
	}
}

// Poll забирает до max готовых результатов без блокировки
func (s *Scheduler) Poll(max int) []TaskResult {
	var results []TaskResult
	for len(results) < max {
		select {
		case r := <-s.results:
			s.inflight.Add(-1)
			results = append(results, r)
		default:
			return results
		}
	}
	return results
}

// Inflight возвращает количество задач, отправленных, но ещё не забранных
// через Poll.
func (s *Scheduler) Inflight() int64 {
	return s.inflight.Load()
}

// Shutdown останавливает воркеров и дожидается их завершения.
// Уже выполняющиеся задачи дорабатывают, их результаты теряются.
func (s *Scheduler) Shutdown() {
	s.cancel()
	s.wg.Wait()
}
