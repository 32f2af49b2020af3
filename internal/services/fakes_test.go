package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"auction-client/internal/domain"
)

var errTransportDown = errors.New("transport down")

type fakeTransport struct {
	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		frames: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) ReadFrame() ([]byte, error) {
	select {
	case f, ok := <-t.frames:
		if !ok {
			return nil, io.EOF
		}
		return f, nil
	case <-t.closed:
		return nil, errTransportDown
	}
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) send(frame string) {
	t.frames <- []byte(frame)
}

// drop simulates the server going away.
func (t *fakeTransport) drop() {
	close(t.frames)
}

func (t *fakeTransport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

type dialResult struct {
	transport *fakeTransport
	err       error
}

// fakeDialer hands out scripted results in order, then fresh transports.
type fakeDialer struct {
	mu         sync.Mutex
	script     []dialResult
	transports []*fakeTransport
	calls      atomic.Int32
	lastToken  string
	// gate, when set, holds every dial until it is closed.
	gate       chan struct{}
}

func (d *fakeDialer) Dial(_ context.Context, _ int64, token string) (domain.StreamTransport, error) {
	d.calls.Add(1)
	if d.gate != nil {
		<-d.gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastToken = token
	var res dialResult
	if len(d.script) > 0 {
		res = d.script[0]
		d.script = d.script[1:]
	} else {
		res = dialResult{transport: newFakeTransport()}
	}
	if res.err != nil {
		return nil, res.err
	}
	d.transports = append(d.transports, res.transport)
	return res.transport, nil
}

func (d *fakeDialer) latest() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}

func (d *fakeDialer) dialed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

// fetchStep is one scripted fetch: it answers snap once release is closed.
type fetchStep struct {
	snap    *domain.AuctionSnapshot
	release chan struct{}
}

type fakeFetcher struct {
	mu     sync.Mutex
	snap   *domain.AuctionSnapshot
	err    error
	script []fetchStep
	calls  atomic.Int32
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, _ int64) (*domain.AuctionSnapshot, error) {
	f.calls.Add(1)
	f.mu.Lock()
	if len(f.script) > 0 {
		step := f.script[0]
		f.script = f.script[1:]
		f.mu.Unlock()

		select {
		case <-step.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		s := *step.snap
		return &s, nil
	}
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := *f.snap
	return &s, nil
}

func (f *fakeFetcher) set(snap *domain.AuctionSnapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
	f.err = err
}

type fakeSubmitter struct {
	mu       sync.Mutex
	commands []domain.BidCommand
	outcome  domain.BidOutcome
}

func (s *fakeSubmitter) Submit(_ context.Context, cmd domain.BidCommand) domain.BidOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return s.outcome
}

func (s *fakeSubmitter) InFlight() bool { return false }
