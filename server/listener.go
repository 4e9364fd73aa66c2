package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"filexfer/config"
	"filexfer/logger"
	"filexfer/perfmetrics"
	"filexfer/protocol"
	"filexfer/transfer"
)

// lingerTimeout bounds how long a served connection is drained before it is closed
const lingerTimeout = 500 * time.Millisecond

// Exchange describes the single request/response cycle a Listener served
type Exchange struct {
	ID       string
	Peer     string
	FileName string // raw bytes received, possibly truncated
	Path     string // filesystem path the name resolved to
	Bytes    int64  // file bytes written to the peer
	Outcome  State  // StateSent or StateFailed
	Err      error  // *transfer.TransferError when Outcome is StateFailed
	Started  time.Time
	Duration time.Duration
}

// Option configures a Listener
type Option func(*Listener)

// WithLogger replaces the component logger
func WithLogger(log zerolog.Logger) Option {
	return func(l *Listener) {
		l.log = log
	}
}

// WithAcceptHook is called with the peer address once a client is accepted
func WithAcceptHook(fn func(peer net.Addr)) Option {
	return func(l *Listener) {
		l.onAccept = fn
	}
}

// Listener binds a TCP endpoint, serves exactly one file request and terminates
type Listener struct {
	cfg      *config.ServerConfig
	log      zerolog.Logger
	onAccept func(peer net.Addr)
	load     func(path string) ([]byte, error)

	mu      sync.Mutex
	state   State
	history []State
	ln      net.Listener
	addr    net.Addr
}

// New creates an unbound listener. A nil cfg uses the defaults.
func New(cfg *config.ServerConfig, opts ...Option) *Listener {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}
	l := &Listener{
		cfg:     cfg,
		log:     logger.WithComponent("listener"),
		load:    transfer.LoadFile,
		state:   StateUnbound,
		history: []State{StateUnbound},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current lifecycle state
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// History returns every state the listener went through, in order
func (l *Listener) History() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]State, len(l.history))
	copy(out, l.history)
	return out
}

// Addr returns the bound address, nil before Bind
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

func (l *Listener) advanceLocked(to State) error {
	if !canTransition(l.state, to) {
		return &InvalidStateError{Op: "enter " + to.String(), Current: l.state}
	}
	l.state = to
	l.history = append(l.history, to)
	l.log.Debug().Str("state", to.String()).Msg("state change")
	return nil
}

func (l *Listener) advance(to State) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.advanceLocked(to)
}

// Bind claims the listening endpoint. There is no retry: a port in use is fatal.
func (l *Listener) Bind() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateUnbound {
		return &InvalidStateError{Op: "bind", Current: l.state}
	}

	address := l.cfg.Address()
	ln, err := net.Listen("tcp", address)
	// state is Unbound under the lock, so none of these transitions can fail
	if err != nil {
		_ = l.advanceLocked(StateTerminated)
		return &transfer.BindError{Addr: address, Err: err}
	}
	l.ln = ln
	l.addr = ln.Addr()

	_ = l.advanceLocked(StateBound)
	_ = l.advanceLocked(StateListening)
	l.log.Info().Str("addr", l.addr.String()).Msg("listening for a file request")
	return nil
}

// Accept blocks until exactly one client connects. There is no timeout; ctx only
// lets the operator interrupt the wait. The listening socket is closed as soon as
// the accept returns, so later connection attempts are refused.
func (l *Listener) Accept(ctx context.Context) (net.Conn, net.Addr, error) {
	l.mu.Lock()
	if l.state != StateListening {
		state := l.state
		l.mu.Unlock()
		return nil, nil, &InvalidStateError{Op: "accept", Current: state}
	}
	ln := l.ln
	l.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stop:
		}
	}()

	conn, err := ln.Accept()
	// single-shot: no second connection is ever serviced
	ln.Close()

	if err != nil {
		l.terminate()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("accept interrupted: %w", ctxErr)
		}
		return nil, nil, fmt.Errorf("accept failed: %w", err)
	}

	if err := l.advance(StateAccepted); err != nil {
		// Close raced the accept
		conn.Close()
		return nil, nil, err
	}

	peer := conn.RemoteAddr()
	l.log.Info().Str("peer", peer.String()).Msg("connection established")
	if l.onAccept != nil {
		l.onAccept(peer)
	}
	return conn, peer, nil
}

// Serve runs the request/response cycle on conn: receive a filename, load the file
// and send all of its bytes. Any failure sends protocol.FileNotFoundMessage instead.
// conn is always closed before Serve returns. Transfer failures are reported in the
// returned Exchange and never as a separate error.
func (l *Listener) Serve(conn net.Conn) *Exchange {
	ex := &Exchange{
		ID:      uuid.NewString(),
		Peer:    conn.RemoteAddr().String(),
		Outcome: StateFailed,
		Started: time.Now(),
	}
	log := l.log.With().Str("exchange", ex.ID).Str("peer", ex.Peer).Logger()

	defer func() {
		// the drain linger is not part of the exchange
		ex.Duration = time.Since(ex.Started)
		if err := releaseConn(conn); err != nil {
			log.Debug().Err(err).Msg("connection release reported errors")
		}
		l.record(log, ex)
	}()

	if err := l.advance(StateServing); err != nil {
		ex.Err = err
		return ex
	}

	if err := l.exchange(log, conn, ex); err != nil {
		ex.Err = err
		if _, werr := protocol.WriteAll(conn, protocol.FileNotFoundResponse()); werr != nil {
			log.Debug().Err(werr).Msg("failed to send failure message")
		}
		log.Warn().
			Err(err).
			Str("kind", transfer.Classify(err).String()).
			Str("file", ex.FileName).
			Msg("transfer failed")
		l.finish(log, StateFailed)
		return ex
	}

	ex.Outcome = StateSent
	l.finish(log, StateSent)
	log.Info().Str("file", ex.FileName).Int64("bytes", ex.Bytes).Msg("file sent")
	return ex
}

// finish moves Serving to its outcome. Only a concurrent Close can make that fail,
// and the exchange result stands either way.
func (l *Listener) finish(log zerolog.Logger, outcome State) {
	if err := l.advance(outcome); err != nil {
		log.Debug().Err(err).Msg("listener closed while serving")
	}
}

func (l *Listener) exchange(log zerolog.Logger, conn net.Conn, ex *Exchange) error {
	name, err := protocol.ReadFilename(conn, l.cfg.BufferSize)
	if err != nil {
		return transfer.NewSocketError("receive", err)
	}
	ex.FileName = name
	ex.Path = transfer.ResolvePath(l.cfg.BaseDir, name)

	if name != "" && transfer.EscapesBase(l.cfg.BaseDir, ex.Path) {
		log.Warn().Str("path", ex.Path).Msg("requested path escapes the base directory")
	}

	data, err := l.load(ex.Path)
	if err != nil {
		return err
	}

	n, err := protocol.WriteAll(conn, data)
	ex.Bytes = int64(n)
	if err != nil {
		sendErr := transfer.NewSocketError("send", err)
		sendErr.Path = ex.Path
		return sendErr
	}
	return nil
}

func (l *Listener) record(log zerolog.Logger, ex *Exchange) {
	if l.cfg.MetricsFile == "" {
		return
	}
	rec := perfmetrics.Record{
		Timestamp:  ex.Started,
		ExchangeID: ex.ID,
		Peer:       ex.Peer,
		FileName:   ex.FileName,
		Outcome:    ex.Outcome.String(),
		Bytes:      ex.Bytes,
		Duration:   ex.Duration,
	}
	if ex.Err != nil {
		rec.ErrorKind = transfer.Classify(ex.Err).String()
	}
	if err := perfmetrics.LogExchangeToCSV(l.cfg.MetricsFile, rec); err != nil {
		log.Error().Err(err).Str("file", l.cfg.MetricsFile).Msg("failed to record exchange")
	}
}

// Run binds when needed, serves one connection and terminates. Only bind and
// accept failures are returned.
func (l *Listener) Run(ctx context.Context) (*Exchange, error) {
	if l.State() == StateUnbound {
		if err := l.Bind(); err != nil {
			return nil, err
		}
	}

	conn, _, err := l.Accept(ctx)
	if err != nil {
		return nil, err
	}
	defer l.terminate()

	return l.Serve(conn), nil
}

// Close stops the listener from any state
func (l *Listener) Close() error {
	return l.terminate()
}

func (l *Listener) terminate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateTerminated {
		return nil
	}
	var err error
	if l.ln != nil {
		if cerr := l.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	// every state but Terminated may move to Terminated
	_ = l.advanceLocked(StateTerminated)
	return err
}

// releaseConn half-closes conn so the peer sees the end of the response, drains
// whatever the peer sent beyond the filename and closes it.
func releaseConn(conn net.Conn) error {
	var result *multierror.Error
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		if err := cw.CloseWrite(); err != nil {
			result = multierror.Append(result, err)
		} else {
			conn.SetReadDeadline(time.Now().Add(lingerTimeout))
			io.Copy(io.Discard, conn)
		}
	}
	if err := transfer.CloseAll(conn); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
