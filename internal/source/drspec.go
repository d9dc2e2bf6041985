package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// DR spectrometer files are a stream of framed spectra. Each frame is a
// 76-byte little-endian header bracketed by sync words, followed by
// 2 tunings x nFreqs x nPols float32 samples.
const (
	drSyncHeader uint32 = 0xC0DEC0DE
	drSyncFooter uint32 = 0xED0CED0C
	drHeaderLen         = 76
	drClockHz           = 196.0e6
)

// Linear polarization products, as flagged in the header's stokes format
// byte. Stokes outputs exist in the format but the viewer only plots the
// linear autocorrelations.
const (
	drPolXX       = 0x01
	drPolYY       = 0x08
	drPolRealHalf = drPolXX | drPolYY
)

// drHeader mirrors the on-disk frame header.
type drHeader struct {
	TimeTag    uint64
	TimeOffset uint16
	Decimation uint16
	Tunings    [2]uint32
	Fills      [4]uint32
	Errors     [4]uint8
	Beam       uint8
	PolFormat  uint8
	Version    uint8
	Flags      uint8
	NFreqs     uint32
	NInts      uint32
	SatCount   [4]uint32
}

// DRFrame is one decoded spectrometer frame: normalized linear power per
// tuning and polarization, plus the frequency axis of each tuning.
type DRFrame struct {
	Timestamp time.Time
	// Freqs[t] is the axis for tuning t, in MHz.
	Freqs [2][]float64
	// Power[t][p] is the normalized spectrum for tuning t, polarization
	// Pols[p].
	Power [2][][]float64
	Pols  []string
	// Saturation fraction per tuning/pol slot (X0, Y0, X1, Y1).
	Saturation [4]float64
}

func (h *drHeader) polCount() int {
	n := 0
	for v := h.PolFormat; v != 0; v &= v - 1 {
		n++
	}
	return n
}

func (h *drHeader) polLabels() ([]string, error) {
	switch h.PolFormat {
	case drPolXX:
		return []string{"XX"}, nil
	case drPolYY:
		return []string{"YY"}, nil
	case drPolRealHalf:
		return []string{"XX", "YY"}, nil
	default:
		return nil, fmt.Errorf("unsupported polarization format %#02x: %w", h.PolFormat, ErrDecode)
	}
}

func (h *drHeader) sampleRate() float64 {
	return drClockHz / float64(h.Decimation)
}

func (h *drHeader) timestamp() time.Time {
	seconds := float64(h.TimeTag-uint64(h.TimeOffset)) / drClockHz
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func (h *drHeader) dataLen() int {
	// 2 tunings, 4 bytes per sample.
	return 2 * 4 * int(h.NFreqs) * h.polCount()
}

// readDRHeader decodes one header, verifying both sync words.
func readDRHeader(r io.Reader) (*drHeader, error) {
	var sync uint32
	if err := binary.Read(r, binary.LittleEndian, &sync); err != nil {
		return nil, fmt.Errorf("read frame sync: %w", err)
	}
	if sync != drSyncHeader {
		return nil, fmt.Errorf("leading sync word %#08x, want %#08x: %w", sync, drSyncHeader, ErrDecode)
	}

	var h drHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &sync); err != nil {
		return nil, fmt.Errorf("read frame footer: %w", err)
	}
	if sync != drSyncFooter {
		return nil, fmt.Errorf("trailing sync word %#08x, want %#08x: %w", sync, drSyncFooter, ErrDecode)
	}
	return &h, nil
}

// readDRFrame decodes the frame whose header starts at the reader's
// position.
func readDRFrame(r io.Reader) (*DRFrame, error) {
	h, err := readDRHeader(r)
	if err != nil {
		return nil, err
	}
	pols, err := h.polLabels()
	if err != nil {
		return nil, err
	}

	raw := make([]byte, h.dataLen())
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	nf := int(h.NFreqs)
	np := len(pols)
	frame := &DRFrame{Timestamp: h.timestamp(), Pols: pols}

	norms := h.norms()
	for t := 0; t < 2; t++ {
		frame.Freqs[t] = tuningAxis(h, t)
		frame.Power[t] = make([][]float64, np)
		for p := range frame.Power[t] {
			frame.Power[t][p] = make([]float64, nf)
		}
	}

	// Payload layout is (tuning, freq, pol), float32 little-endian.
	off := 0
	for t := 0; t < 2; t++ {
		for f := 0; f < nf; f++ {
			for p := 0; p < np; p++ {
				v := math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
				frame.Power[t][p][f] = float64(v) / norms[t][p]
				off += 4
			}
		}
	}

	total := float64(h.NInts) * float64(h.NFreqs)
	for i, c := range h.SatCount {
		frame.Saturation[i] = float64(c) / total
	}
	return frame, nil
}

// norms returns the fill-count normalization per tuning and polarization,
// indexed like the decoded payload.
func (h *drHeader) norms() [2][]float64 {
	nf := float64(h.NFreqs)
	fills := [4]float64{}
	for i, f := range h.Fills {
		fills[i] = float64(f) * nf
		if fills[i] == 0 {
			fills[i] = 1
		}
	}
	switch h.PolFormat {
	case drPolXX:
		return [2][]float64{{fills[0]}, {fills[2]}}
	case drPolYY:
		return [2][]float64{{fills[1]}, {fills[3]}}
	default: // drPolRealHalf, checked by polLabels
		return [2][]float64{{fills[0], fills[1]}, {fills[2], fills[3]}}
	}
}

func tuningAxis(h *drHeader, tuning int) []float64 {
	center := float64(h.Tunings[tuning]) * drClockHz / math.Exp2(32)
	half := h.sampleRate() / 2
	axis := make([]float64, h.NFreqs)
	if h.NFreqs == 1 {
		axis[0] = center / 1e6
		return axis
	}
	step := h.sampleRate() / float64(h.NFreqs-1)
	for i := range axis {
		axis[i] = (center - half + float64(i)*step) / 1e6
	}
	return axis
}

// readLastDRFrame seeks to and decodes the newest complete frame in the
// file. The first header fixes the frame geometry; recorder files never mix
// formats mid-stream.
func readLastDRFrame(r io.ReadSeeker) (*DRFrame, error) {
	if err := seekToSync(r); err != nil {
		return nil, err
	}
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	h, err := readDRHeader(r)
	if err != nil {
		return nil, err
	}

	frameLen := int64(drHeaderLen + h.dataLen())
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if end-start < frameLen {
		return nil, fmt.Errorf("file holds no complete frame: %w", ErrDecode)
	}
	// Last whole frame, aligned to the first sync position.
	last := start + ((end-start)/frameLen-1)*frameLen
	if _, err := r.Seek(last, io.SeekStart); err != nil {
		return nil, err
	}
	return readDRFrame(r)
}

// seekToSync positions the reader on the next frame sync word.
func seekToSync(r io.ReadSeeker) error {
	pattern := binary.LittleEndian.AppendUint32(nil, drSyncHeader)
	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	const chunk = 64 << 10
	buf := make([]byte, 0, chunk+len(pattern))
	bufStart := base
	for {
		block := make([]byte, chunk)
		n, err := r.Read(block)
		if n > 0 {
			buf = append(buf, block[:n]...)
			if idx := bytes.Index(buf, pattern); idx >= 0 {
				_, err := r.Seek(bufStart+int64(idx), io.SeekStart)
				return err
			}
			// Keep a pattern-sized tail to catch syncs across reads.
			if keep := len(pattern) - 1; len(buf) > keep {
				bufStart += int64(len(buf) - keep)
				buf = append(buf[:0], buf[len(buf)-keep:]...)
			}
		}
		if err == io.EOF {
			return fmt.Errorf("no frame sync found: %w", ErrDecode)
		}
		if err != nil {
			return err
		}
	}
}
