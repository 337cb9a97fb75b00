// Package ingest implements Realtime Ingest (spec C8): a single streaming
// connection with exponential-backoff reconnection, a pluggable tick
// parser, tick→bar aggregation, and interval batching.
//
// The connection lifecycle and backoff loop are grounded on
// async/loader.go's retry handling (the teacher's resource loader retries a
// failed load with a backing-off schedule); here the same shape drives
// reconnect attempts instead of load attempts.
package ingest

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"bitchart.dev/core/store"
)

// Conn is the narrow transport interface a host application satisfies with
// whatever websocket client it already uses. BitChart's Non-goals exclude
// server/transport libraries, so no concrete implementation ships here (see
// DESIGN.md's Open Question decision).
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage([]byte) error
	Close() error
}

// Dialer opens a new Conn, e.g. a closure wrapping gorilla/websocket.Dial
// or any other client the host already depends on.
type Dialer func() (Conn, error)

// TickParser maps one raw transport message to zero, one, or many Ticks.
// A nil, nil return means "no tick in this message" (e.g. a subscription
// ack); it is not an error.
type TickParser interface {
	Parse(raw []byte) ([]store.Tick, error)
}

// State is one of the Connection State values from spec §3.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the outbound subscriber protocol: connect, disconnect, error,
// tick, candle, batch.
type Event interface{ isIngestEvent() }

type ConnectEvent struct{}
type DisconnectEvent struct{ Err error }
type ErrorEvent struct{ Err error }
type TickEvent struct{ Tick store.Tick }

// CandleEvent re-emits the current bar; Partial is true when the bar is
// still accumulating ticks (spec §4.8 "Batching": every batchInterval a
// partial candle is re-emitted alongside the batch).
type CandleEvent struct {
	Bar     store.Bar
	Partial bool
}

// BatchEvent carries every tick buffered since the previous batch tick.
type BatchEvent struct{ Ticks []store.Tick }

func (ConnectEvent) isIngestEvent()    {}
func (DisconnectEvent) isIngestEvent() {}
func (ErrorEvent) isIngestEvent()      {}
func (TickEvent) isIngestEvent()       {}
func (CandleEvent) isIngestEvent()     {}
func (BatchEvent) isIngestEvent()      {}

// Config controls reconnect backoff and batching, per spec §4.8.
type Config struct {
	Timeframe            time.Duration // tick→bar bucket width
	BatchInterval        time.Duration // how often to flush batch/partial-candle events
	ReconnectDelay       time.Duration // base backoff delay
	MaxReconnectDelay    time.Duration // backoff cap (spec: 30s)
	MaxReconnectAttempts int           // 0 = unlimited
	AutoReconnect        bool
}

// DefaultConfig returns the spec's defaults: 30s backoff cap, auto-reconnect
// on.
func DefaultConfig() Config {
	return Config{
		Timeframe:            time.Minute,
		BatchInterval:        250 * time.Millisecond,
		ReconnectDelay:       time.Second,
		MaxReconnectDelay:    30 * time.Second,
		MaxReconnectAttempts: 0,
		AutoReconnect:        true,
	}
}

// Feed owns one streaming connection's lifecycle, aggregation, and
// batching, and publishes Events to subscribers.
type Feed struct {
	dial   Dialer
	parser TickParser
	cfg    Config

	out chan Event

	stop chan struct{}

	state State
}

// NewFeed constructs a Feed. Subscribers read from Events() until the feed
// is closed with Stop.
func NewFeed(dial Dialer, parser TickParser, cfg Config) *Feed {
	return &Feed{
		dial:   dial,
		parser: parser,
		cfg:    cfg,
		out:    make(chan Event, 64),
		stop:   make(chan struct{}),
	}
}

// Events returns the outbound event channel.
func (f *Feed) Events() <-chan Event { return f.out }

// State reports the current connection state.
func (f *Feed) State() State { return f.state }

// Stop terminates the feed: closes any live connection, cancels pending
// reconnect attempts, and closes the event channel.
func (f *Feed) Stop() {
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
}

// Run drives the connect/read/reconnect loop until Stop is called or
// AutoReconnect is false and the connection closes. Intended to be called
// in its own goroutine.
func (f *Feed) Run() {
	defer close(f.out)
	agg := NewAggregator(f.cfg.Timeframe)
	attempt := 0
	for {
		select {
		case <-f.stop:
			return
		default:
		}

		f.state = StateConnecting
		conn, err := f.dial()
		if err != nil {
			f.state = StateError
			f.emit(ErrorEvent{Err: err})
			if !f.backoff(&attempt) {
				return
			}
			continue
		}

		f.state = StateConnected
		attempt = 0
		f.emit(ConnectEvent{})
		err = f.readLoop(conn, agg)
		conn.Close()

		select {
		case <-f.stop:
			f.emit(DisconnectEvent{Err: err})
			return
		default:
		}

		if err != nil {
			f.emit(ErrorEvent{Err: err})
		}
		f.emit(DisconnectEvent{Err: err})

		if !f.cfg.AutoReconnect {
			return
		}
		f.state = StateReconnecting
		if !f.backoff(&attempt) {
			return
		}
	}
}

// backoff sleeps for the current exponential-backoff delay (doubling each
// attempt, capped at MaxReconnectDelay) and increments attempt. Returns
// false if MaxReconnectAttempts has been exhausted or Stop was called
// during the wait.
func (f *Feed) backoff(attempt *int) bool {
	if f.cfg.MaxReconnectAttempts > 0 && *attempt >= f.cfg.MaxReconnectAttempts {
		f.emit(ErrorEvent{Err: errors.New("ingest: max reconnect attempts exhausted")})
		return false
	}
	delay := f.cfg.ReconnectDelay << uint(*attempt)
	if delay > f.cfg.MaxReconnectDelay || delay <= 0 {
		delay = f.cfg.MaxReconnectDelay
	}
	*attempt++
	select {
	case <-f.stop:
		return false
	case <-time.After(delay):
		return true
	}
}

// readLoop reads messages from conn until it errors or Stop is signaled,
// parsing each into ticks, feeding the aggregator, and flushing batches on
// a BatchInterval ticker.
func (f *Feed) readLoop(conn Conn, agg *Aggregator) error {
	flush := time.NewTicker(f.cfg.BatchInterval)
	defer flush.Stop()

	msgs := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			raw, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- raw:
			case <-f.stop:
				return
			}
		}
	}()

	var buffered []store.Tick
	for {
		select {
		case <-f.stop:
			return nil
		case err := <-readErr:
			return err
		case raw := <-msgs:
			ticks, err := f.parser.Parse(raw)
			if err != nil {
				// Data errors are dropped, never kill the stream (spec §7).
				continue
			}
			for _, t := range ticks {
				f.emit(TickEvent{Tick: t})
				if bar, ok := agg.Add(t); ok {
					f.emit(CandleEvent{Bar: bar, Partial: false})
				}
				buffered = append(buffered, t)
			}
		case <-flush.C:
			if len(buffered) > 0 {
				f.emit(BatchEvent{Ticks: buffered})
				buffered = nil
			}
			if cur, ok := agg.Current(); ok {
				f.emit(CandleEvent{Bar: cur, Partial: true})
			}
		}
	}
}

func (f *Feed) emit(e Event) {
	select {
	case f.out <- e:
	case <-f.stop:
	}
}

// DefaultParser implements TickParser for the generic
// {time,price,volume?,side?} shape (spec §6).
type DefaultParser struct{}

type defaultTickWire struct {
	Time   float64  `json:"time"`
	Price  float64  `json:"price"`
	Volume *float64 `json:"volume"`
	Side   *string  `json:"side"`
}

func (DefaultParser) Parse(raw []byte) ([]store.Tick, error) {
	var w defaultTickWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	t := store.Tick{Time: float32(w.Time), Price: float32(w.Price)}
	if w.Volume != nil {
		t.Volume = float32(*w.Volume)
	}
	if w.Side != nil {
		switch *w.Side {
		case "buy":
			t.Side = store.SideBuy
		case "sell":
			t.Side = store.SideSell
		}
	}
	return []store.Tick{t}, nil
}

// ExchangeParser implements TickParser for the well-known public-exchange
// trade/aggTrade wire shape {e,T,p,q,m} (spec §6): T is ms, p/q are decimal
// strings, m=true means seller-initiated.
type ExchangeParser struct{}

type exchangeTickWire struct {
	E string `json:"e"`
	T int64  `json:"T"`
	P string `json:"p"`
	Q string `json:"q"`
	M bool   `json:"m"`
}

func (ExchangeParser) Parse(raw []byte) ([]store.Tick, error) {
	var w exchangeTickWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	if w.E != "trade" && w.E != "aggTrade" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(w.P, 64)
	if err != nil {
		return nil, err
	}
	qty, err := strconv.ParseFloat(w.Q, 64)
	if err != nil {
		return nil, err
	}
	side := store.SideBuy
	if w.M {
		side = store.SideSell
	}
	return []store.Tick{{
		Time:   float32(w.T),
		Price:  float32(price),
		Volume: float32(qty),
		Side:   side,
	}}, nil
}
