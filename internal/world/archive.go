package world

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

// voxelRecordSize размер сериализованного вокселя: байт заполненности,
// четыре канала цвета и размер, все float32 в little-endian.
const voxelRecordSize = 1 + 4*4 + 4

// VoxelArchiver сжимает воксельные буферы далёких чанков, чтобы держать их
// в памяти дешевле развёрнутого представления. Encoder и decoder из
// klauspost/compress потокобезопасны в режиме EncodeAll/DecodeAll.
type VoxelArchiver struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewVoxelArchiver создаёт архиватор с уровнем сжатия по умолчанию
func NewVoxelArchiver() (*VoxelArchiver, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("создание zstd-кодировщика: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("создание zstd-декодера: %w", err)
	}
	return &VoxelArchiver{enc: enc, dec: dec}, nil
}

// Compress сериализует и сжимает воксельный буфер
func (a *VoxelArchiver) Compress(voxels []Voxel) []byte {
	raw := make([]byte, 0, len(voxels)*voxelRecordSize)
	scratch := make([]byte, 4)

	putFloat := func(v float32) {
		binary.LittleEndian.PutUint32(scratch, math.Float32bits(v))
		raw = append(raw, scratch...)
	}

	for _, v := range voxels {
		if v.Solid {
			raw = append(raw, 1)
		} else {
			raw = append(raw, 0)
		}
		putFloat(v.Color.R)
		putFloat(v.Color.G)
		putFloat(v.Color.B)
		putFloat(v.Color.A)
		putFloat(v.Size)
	}

	return a.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))
}

// Decompress распаковывает и десериализует воксельный буфер.
// expected — ожидаемое количество вокселей; несовпадение означает
// повреждённые данные.
func (a *VoxelArchiver) Decompress(data []byte, expected int) ([]Voxel, error) {
	raw, err := a.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("распаковка буфера: %w", err)
	}
	if len(raw) != expected*voxelRecordSize {
		return nil, fmt.Errorf("неожиданный размер буфера: %d байт вместо %d", len(raw), expected*voxelRecordSize)
	}

	voxels := make([]Voxel, expected)
	offset := 0
	getFloat := func() float32 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(raw[offset : offset+4]))
		offset += 4
		return v
	}

	for i := range voxels {
		voxels[i].Solid = raw[offset] != 0
		offset++
		voxels[i].Color.R = getFloat()
		voxels[i].Color.G = getFloat()
		voxels[i].Color.B = getFloat()
		voxels[i].Color.A = getFloat()
		voxels[i].Size = getFloat()
	}

	return voxels, nil
}

// Close освобождает ресурсы кодировщика и декодера
func (a *VoxelArchiver) Close() {
	a.enc.Close()
	a.dec.Close()
}
