// ABOUTME: Ogg Opus file source
// ABOUTME: Decodes Opus streams at 48kHz through libopusfile
package decode

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/hraban/opus.v2"

	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
)

// OpusSampleRate is the decode rate of every Opus stream.
const OpusSampleRate = 48000

// opusHeadScan bounds how far into the file the identification header is
// searched for.
const opusHeadScan = 512

var errNoOpusHead = errors.New("no OpusHead packet found")

// OpusSource reads from an Ogg Opus file
type OpusSource struct {
	file   *os.File
	stream *opus.Stream
	format audio.Format
	loop   bool
	pcm16  []int16
}

// NewOpusSource creates a new Ogg Opus audio source
func NewOpusSource(filePath string, loop bool) (*OpusSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}

	channels, err := readOpusChannels(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Opus: %w", err)
	}

	s := &OpusSource{
		file: f,
		format: audio.Format{
			Codec:      "opus",
			SampleRate: OpusSampleRate,
			Channels:   channels,
			BitDepth:   16,
		},
		loop: loop,
	}
	if err := s.rewind(); err != nil {
		f.Close()
		return nil, err
	}

	log.Info("Loaded Opus: %s (channels: %d)", titleOf(filePath), channels)
	return s, nil
}

// readOpusChannels finds the OpusHead packet and returns its channel count.
func readOpusChannels(r io.Reader) (int, error) {
	head, err := bufio.NewReaderSize(r, opusHeadScan).Peek(opusHeadScan)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, err
	}
	return parseOpusChannels(head)
}

func parseOpusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, []byte("OpusHead"))
	// magic(8) version(1) channels(1)
	if idx < 0 || idx+10 > len(data) {
		return 0, errNoOpusHead
	}
	channels := int(data[idx+9])
	if channels == 0 {
		return 0, fmt.Errorf("invalid Opus channel count: %d", channels)
	}
	return channels, nil
}

func (s *OpusSource) Read(samples []int32) (int, error) {
	if cap(s.pcm16) < len(samples) {
		s.pcm16 = make([]int16, len(samples))
	}
	pcm16 := s.pcm16[:len(samples)]

	// Stream.Read reports samples per channel.
	n, err := s.stream.Read(pcm16)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("opus decode failed: %w", err)
		}
		if !s.loop {
			return 0, io.EOF
		}
		if err := s.rewind(); err != nil {
			return 0, err
		}
		return 0, nil
	}

	actualSamples := n * s.format.Channels
	for i := 0; i < actualSamples; i++ {
		samples[i] = audio.SampleFromInt16(pcm16[i])
	}
	return actualSamples, nil
}

func (s *OpusSource) rewind() error {
	if s.stream != nil {
		s.stream.Close()
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := opus.NewStream(s.file)
	if err != nil {
		return fmt.Errorf("failed to create opus stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *OpusSource) Format() audio.Format { return s.format }

func (s *OpusSource) Close() error {
	if s.stream != nil {
		s.stream.Close()
	}
	return s.file.Close()
}
