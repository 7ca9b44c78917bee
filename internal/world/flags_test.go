package world

import "testing"

func TestFlagsWithWithout(t *testing.T) {
	var f ChunkFlags

	f = f.With(FlagGenerated | FlagDirty)
	if !f.Has(FlagGenerated) || !f.Has(FlagDirty) {
		t.Errorf("Флаги не установлены: %s", f)
	}

	f = f.Without(FlagDirty)
	if f.Has(FlagDirty) {
		t.Errorf("Флаг Dirty не сброшен: %s", f)
	}
	if !f.Has(FlagGenerated) {
		t.Error("Сброс Dirty затронул Generated")
	}
}

func TestFlagsHasRequiresAll(t *testing.T) {
	f := FlagGenerated | FlagMeshed

	if !f.Has(FlagGenerated | FlagMeshed) {
		t.Error("Has должен подтверждать установленную комбинацию")
	}
	if f.Has(FlagGenerated | FlagDrawn) {
		t.Error("Has должен требовать все указанные биты")
	}
}

func TestFlagsString(t *testing.T) {
	if s := ChunkFlags(0).String(); s != "none" {
		t.Errorf("Пустой набор: ожидалось none, получено %q", s)
	}

	f := FlagGenerated | FlagBusy
	if s := f.String(); s != "Generated|Busy" {
		t.Errorf("Неверное представление: %q", s)
	}
}

func TestChunkTransition(t *testing.T) {
	chunk := NewChunk(2, 2, 2, vecZero())

	chunk.Raise(FlagBusy)
	chunk.Transition(FlagGenerated|FlagDirty, FlagBusy)

	flags := chunk.Flags()
	if !flags.Has(FlagGenerated | FlagDirty) {
		t.Errorf("Переход не установил флаги: %s", flags)
	}
	if flags.Has(FlagBusy) {
		t.Errorf("Переход не снял Busy: %s", flags)
	}
}

func TestChunkMarkBusy(t *testing.T) {
	chunk := NewChunk(2, 2, 2, vecZero())

	if !chunk.MarkBusy() {
		t.Error("Первый MarkBusy должен вернуть true")
	}
	if chunk.MarkBusy() {
		t.Error("Повторный MarkBusy должен вернуть false")
	}

	chunk.Lower(FlagBusy)
	if !chunk.MarkBusy() {
		t.Error("После снятия Busy чанк снова доступен")
	}
}
