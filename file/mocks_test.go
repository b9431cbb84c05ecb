package file

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"
)

const testFileName = "test.bin"

var testClient = &net.UDPAddr{IP: net.ParseIP("192.0.2.10"), Port: 4000}

// mockTimeProvider provides deterministic time for testing.
type mockTimeProvider struct {
	currentTime time.Time
}

func (m *mockTimeProvider) Now() time.Time {
	return m.currentTime
}

func (m *mockTimeProvider) Since(t time.Time) time.Duration {
	return m.currentTime.Sub(t)
}

func (m *mockTimeProvider) advance(d time.Duration) {
	m.currentTime = m.currentTime.Add(d)
}

func newMockTimeProvider() *mockTimeProvider {
	return &mockTimeProvider{
		currentTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// trackingReader wraps a reader and records Close calls.
type trackingReader struct {
	io.Reader
	closeCount int
	closeErr   error
}

func (r *trackingReader) Close() error {
	r.closeCount++
	return r.closeErr
}

func newTrackingReader(data []byte) *trackingReader {
	return &trackingReader{Reader: bytes.NewReader(data)}
}

// failingReader returns good data for the first n bytes, then err.
type failingReader struct {
	remaining int
	err       error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, r.err
	}
	n := len(p)
	if n > r.remaining {
		n = r.remaining
	}
	r.remaining -= n
	return n, nil
}

func (r *failingReader) Close() error { return nil }

// endlessReader never reaches end of file.
type endlessReader struct{}

func (endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0xAB
	}
	return len(p), nil
}

func (endlessReader) Close() error { return nil }

var errDiskFailure = errors.New("disk failure")

func testPayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}
