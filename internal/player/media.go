package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

const userAgent = "folio-audiobook-player/1.0 (https://github.com/llehouerou/folio)"

// media is an open, decodable section.
type media struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
}

func (m *media) Close() error {
	return m.streamer.Close()
}

// opener turns a URI into decodable media. Remote sections are fetched fully
// into memory so they can be seeked.
type opener struct {
	httpClient *http.Client
}

func newOpener(timeout time.Duration) *opener {
	return &opener{httpClient: &http.Client{Timeout: timeout}}
}

func (o *opener) open(ctx context.Context, uri string) (*media, error) {
	var (
		src io.ReadCloser
		err error
	)
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		src, err = o.fetch(ctx, uri)
	} else {
		src, err = os.Open(strings.TrimPrefix(uri, "file://"))
	}
	if err != nil {
		return nil, err
	}

	streamer, format, err := decodeMP3(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &media{streamer: streamer, format: format}, nil
}

type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

func (o *opener) fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return memoryFile{bytes.NewReader(data)}, nil
}

// mp3Stream adapts llehouerou/go-mp3 to beep.StreamSeekCloser.
type mp3Stream struct {
	decoder *mp3.Decoder
	closer  io.Closer
	err     error
	buf     []byte
}

// decodeMP3 wraps src in a stereo 16-bit stream. src is closed by the stream.
func decodeMP3(src io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	decoder, err := mp3.NewDecoder(src)
	if err != nil {
		return nil, beep.Format{}, err
	}
	rate := decoder.SampleRate()
	if rate == 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: 2,
		Precision:   2,
	}
	return &mp3Stream{decoder: decoder, closer: src, buf: make([]byte, 8192)}, format, nil
}

const bytesPerFrame = 4 // two 16-bit channels

func (s *mp3Stream) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	want := len(samples) * bytesPerFrame
	if len(s.buf) < want {
		s.buf = make([]byte, want)
	}

	read, err := io.ReadFull(s.decoder, s.buf[:want])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.err = err
		return 0, false
	}
	frames := read / bytesPerFrame
	if frames == 0 {
		return 0, false
	}
	for i := range frames {
		off := i * bytesPerFrame
		samples[i][0] = pcm16(s.buf[off:])
		samples[i][1] = pcm16(s.buf[off+2:])
	}
	return frames, true
}

func pcm16(b []byte) float64 {
	return float64(int16(binary.LittleEndian.Uint16(b))) / 32768.0 //nolint:gosec // audio samples
}

func (s *mp3Stream) Err() error { return s.err }

func (s *mp3Stream) Len() int {
	return int(max(s.decoder.SampleCount(), 0))
}

func (s *mp3Stream) Position() int {
	return int(s.decoder.SamplePosition())
}

func (s *mp3Stream) Seek(p int) error {
	p = min(max(p, 0), s.Len())
	if err := s.decoder.SeekToSample(int64(p)); err != nil {
		return err
	}
	s.err = nil
	return nil
}

func (s *mp3Stream) Close() error {
	return s.closer.Close()
}
