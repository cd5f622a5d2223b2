package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// waveFormat is the "fmt " chunk of a RIFF/WAVE file.
type waveFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

type waveFile struct {
	Format waveFormat
	Data   []byte
}

// parseWave walks the RIFF chunks so recordings with extra chunks
// (LIST, fact) before "data" are accepted.
func parseWave(raw []byte) (*waveFile, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	var (
		wf        waveFile
		sawFormat bool
	)
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(raw) {
			// Streaming recorders sometimes leave the data size unset.
			size = len(raw) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			if err := binary.Read(bytes.NewReader(raw[body:body+16]), binary.LittleEndian, &wf.Format); err != nil {
				return nil, err
			}
			sawFormat = true
		case "data":
			wf.Data = raw[body : body+size]
		}

		pos = body + size + size%2
	}

	if !sawFormat {
		return nil, errors.New("missing fmt chunk")
	}
	if wf.Data == nil {
		return nil, errors.New("missing data chunk")
	}
	return &wf, nil
}
