package world

import "strings"

// ChunkFlags представляет набор независимых битов состояния чанка.
// Биты управляют тем, какая работа чанку ещё требуется; все переходы
// выполняются централизованно в Discovery (выставление Busy при эмиссии
// действия) и в Pipeline (применение результатов задач).
type ChunkFlags uint8

const (
	// FlagGenerated — воксельный буфер заполнен генератором.
	FlagGenerated ChunkFlags = 1 << iota
	// FlagDirty — содержимое вокселей изменилось, меш устарел.
	FlagDirty
	// FlagMeshed — для текущего содержимого построен меш.
	FlagMeshed
	// FlagDrawn — чанк представлен видимой отрисовываемой сущностью.
	FlagDrawn
	// FlagBusy — по чанку выполняется асинхронная операция;
	// повторная эмиссия действий запрещена.
	FlagBusy
)

// Has проверяет, установлены ли все указанные биты
func (f ChunkFlags) Has(flags ChunkFlags) bool {
	return f&flags == flags
}

// With возвращает набор с установленными битами
func (f ChunkFlags) With(flags ChunkFlags) ChunkFlags {
	return f | flags
}

// Without возвращает набор со сброшенными битами
func (f ChunkFlags) Without(flags ChunkFlags) ChunkFlags {
	return f &^ flags
}

// String возвращает человекочитаемое представление набора флагов
func (f ChunkFlags) String() string {
	if f == 0 {
		return "none"
	}

	names := make([]string, 0, 5)
	if f.Has(FlagGenerated) {
		names = append(names, "Generated")
	}
	if f.Has(FlagDirty) {
		names = append(names, "Dirty")
	}
	if f.Has(FlagMeshed) {
		names = append(names, "Meshed")
	}
	if f.Has(FlagDrawn) {
		names = append(names, "Drawn")
	}
	if f.Has(FlagBusy) {
		names = append(names, "Busy")
	}
	return strings.Join(names, "|")
}
