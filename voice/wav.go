package voice

import (
	"encoding/binary"
	"io"
)

// Format describes little-endian PCM samples.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

const wavHeaderSize = 44

type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

func writeWAVHeader(w io.WriterAt, f Format, dataSize uint32) error {
	blockAlign := f.Channels * f.BitsPerSample / 8

	h := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		Channels:      uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.SampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(f.BitsPerSample),
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}

	buf := make([]byte, 0, wavHeaderSize)
	buf, err := binary.Append(buf, binary.LittleEndian, h)
	if err != nil {
		return err
	}

	_, err = w.WriteAt(buf, 0)

	return err
}
