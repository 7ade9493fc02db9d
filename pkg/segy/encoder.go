package segy

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"geovis/internal/models"
)

// Encode writes ds as a SEGY buffer using the given sample format. Trace
// headers are zero-filled. The textual header is written in EBCDIC.
func Encode(ds *models.SEGYDataset, formatCode int) ([]byte, error) {
	if ds == nil {
		return nil, fmt.Errorf("segy: nothing to encode")
	}
	if ds.SampleCount <= 0 || ds.SampleCount > math.MaxInt16 {
		return nil, fmt.Errorf("segy: sample count %d does not fit the binary header", ds.SampleCount)
	}
	if ds.SampleIntervalMicroseconds > math.MaxInt16 {
		return nil, fmt.Errorf("segy: sample interval %d does not fit the binary header", ds.SampleIntervalMicroseconds)
	}

	traceSize := TraceSize(ds.SampleCount)
	buf := make([]byte, HeaderSize+len(ds.Traces)*traceSize)

	text, err := encodeTextHeader(ds.TextHeader)
	if err != nil {
		return nil, err
	}
	copy(buf, text)

	binary.BigEndian.PutUint16(buf[offsetSampleInterval:], uint16(int16(ds.SampleIntervalMicroseconds)))
	binary.BigEndian.PutUint16(buf[offsetSampleCount:], uint16(int16(ds.SampleCount)))
	binary.BigEndian.PutUint16(buf[offsetFormatCode:], uint16(int16(formatCode)))

	encodeSample := math.Float32bits
	if formatCode == FormatIBMFloat {
		encodeSample = IEEEToIBM
	}

	for i, tr := range ds.Traces {
		if len(tr) != ds.SampleCount {
			return nil, fmt.Errorf("segy: trace %d has %d samples, want %d", i, len(tr), ds.SampleCount)
		}
		off := HeaderSize + i*traceSize + TraceHeaderSize
		for j, v := range tr {
			binary.BigEndian.PutUint32(buf[off+j*BytesPerSample:], encodeSample(v))
		}
	}
	return buf, nil
}

func encodeTextHeader(cards []string) ([]byte, error) {
	var sb strings.Builder
	for i := 0; i < cardCount; i++ {
		card := ""
		if i < len(cards) {
			card = cards[i]
		}
		if len(card) > cardWidth {
			card = card[:cardWidth]
		}
		sb.WriteString(card)
		sb.WriteString(strings.Repeat(" ", cardWidth-len(card)))
	}
	out, err := charmap.CodePage037.NewEncoder().String(sb.String())
	if err != nil {
		return nil, fmt.Errorf("segy: encoding text header: %w", err)
	}
	return []byte(out), nil
}
