package world

import (
	"errors"
	"testing"
	"time"

	"github.com/annel0/voxel-stream/internal/vec"
)

// pollOne дожидается одного результата с разумным таймаутом
func pollOne(t *testing.T, s *Scheduler) TaskResult {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if results := s.Poll(1); len(results) == 1 {
			return results[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("Результат задачи не получен за отведённое время")
	return TaskResult{}
}

func TestSchedulerRoundTrip(t *testing.T) {
	s := NewScheduler(2, 8)
	defer s.Shutdown()

	coords := vec.Vec3{X: 16, Y: 0, Z: -16}
	submitted := s.Submit(Task{
		Kind:   TaskGenerate,
		Coords: coords,
		Run: func() TaskResult {
			return TaskResult{Voxels: make([]Voxel, 8)}
		},
	})
	if !submitted {
		t.Fatal("Отправка в пустую очередь должна удаваться")
	}

	result := pollOne(t, s)
	if result.Kind != TaskGenerate {
		t.Errorf("Ожидался вид generate, получено %s", result.Kind)
	}
	if !result.Coords.Equals(coords) {
		t.Errorf("Координаты результата %v не совпадают с задачей %v", result.Coords, coords)
	}
	if len(result.Voxels) != 8 {
		t.Errorf("Полезная нагрузка потеряна: %d вокселей", len(result.Voxels))
	}
}

func TestSchedulerErrorPropagation(t *testing.T) {
	s := NewScheduler(1, 4)
	defer s.Shutdown()

	wantErr := errors.New("распаковка не удалась")
	s.Submit(Task{
		Kind: TaskRestore,
		Run: func() TaskResult {
			return TaskResult{Err: wantErr}
		},
	})

	result := pollOne(t, s)
	if !errors.Is(result.Err, wantErr) {
		t.Errorf("Ожидалась ошибка %v, получено %v", wantErr, result.Err)
	}
}

func TestSchedulerBackpressure(t *testing.T) {
	s := NewScheduler(1, 1)
	defer s.Shutdown()

	block := make(chan struct{})
	slow := Task{Run: func() TaskResult {
		<-block
		return TaskResult{}
	}}

	// Первая задача занимает воркера, вторая — очередь.
	s.Submit(slow)
	s.Submit(slow)

	// Очередь может освободиться, как только воркер заберёт первую задачу,
	// поэтому ждём устойчивого заполнения.
	deadline := time.Now().Add(2 * time.Second)
	full := false
	for time.Now().Before(deadline) {
		if !s.Submit(slow) {
			full = true
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !full {
		t.Error("Отправка в заполненную очередь должна возвращать false")
	}

	close(block)
}

func TestSchedulerInflight(t *testing.T) {
	s := NewScheduler(1, 4)
	defer s.Shutdown()

	if s.Inflight() != 0 {
		t.Errorf("Новый планировщик должен быть пуст, inflight = %d", s.Inflight())
	}

	s.Submit(Task{Run: func() TaskResult { return TaskResult{} }})
	if s.Inflight() != 1 {
		t.Errorf("После отправки inflight = %d, ожидалось 1", s.Inflight())
	}

	pollOne(t, s)
	if s.Inflight() != 0 {
		t.Errorf("После Poll inflight = %d, ожидалось 0", s.Inflight())
	}
}

func TestSchedulerShutdown(t *testing.T) {
	s := NewScheduler(4, 16)

	for i := 0; i < 8; i++ {
		s.Submit(Task{Run: func() TaskResult { return TaskResult{} }})
	}

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown не завершился за отведённое время")
	}
}
