package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	sse "github.com/tmaxmax/go-sse"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

type Kind int

const (
	FlightReceived Kind = iota
	StreamEnded
	NoFlights
	TransportError
	PayloadError
)

func (k Kind) String() string {
	switch k {
	case FlightReceived:
		return "flight"
	case StreamEnded:
		return "end"
	case NoFlights:
		return "no_flights"
	case TransportError:
		return "transport_error"
	case PayloadError:
		return "payload_error"
	}
	return "unknown"
}

// Terminal reports whether no message can follow this one.
func (k Kind) Terminal() bool {
	return k != FlightReceived
}

type Message struct {
	Kind   Kind
	Flight models.Flight
	Err    error
}

const (
	EndSentinel   = "END"
	noFlightsType = "NO_FLIGHTS"
)

var (
	ErrConnectionLost = errors.New("connection lost")
	ErrBadPayload     = errors.New("error processing flight data")
)

// Decode classifies a single event payload.
func Decode(data string) Message {
	if strings.TrimSpace(data) == EndSentinel {
		return Message{Kind: StreamEnded}
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(data), &envelope); err != nil {
		return Message{Kind: PayloadError, Err: fmt.Errorf("%w: %v", ErrBadPayload, err)}
	}
	if envelope.Type == noFlightsType {
		return Message{Kind: NoFlights}
	}

	var f models.Flight
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return Message{Kind: PayloadError, Err: fmt.Errorf("%w: %v", ErrBadPayload, err)}
	}
	if f.Outbound.Origin == "" || f.Outbound.DepartureTime == "" {
		return Message{Kind: PayloadError, Err: fmt.Errorf("%w: missing outbound leg", ErrBadPayload)}
	}
	return Message{Kind: FlightReceived, Flight: f}
}

// Channel is one open event stream. It never reconnects: the first terminal
// message ends it and the message channel is closed afterwards.
type Channel struct {
	msgs   chan Message
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
}

// Open starts streaming from url in the background. Connection failures are
// reported as a TransportError message rather than returned.
func Open(ctx context.Context, client *http.Client, url string) *Channel {
	ctx, cancel := context.WithCancel(ctx)
	ch := &Channel{
		msgs:   make(chan Message),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go ch.run(ctx, client, url)
	return ch
}

func (ch *Channel) Messages() <-chan Message {
	return ch.msgs
}

// Close aborts the stream and waits for the reader to exit. Safe to call
// more than once.
func (ch *Channel) Close() {
	ch.once.Do(ch.cancel)
	<-ch.done
}

func (ch *Channel) run(ctx context.Context, client *http.Client, url string) {
	defer close(ch.done)
	defer close(ch.msgs)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		ch.emit(ctx, transportError(err))
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			ch.emit(ctx, transportError(err))
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ch.emit(ctx, transportError(fmt.Errorf("unexpected status %d", resp.StatusCode)))
		return
	}

	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			if ctx.Err() == nil {
				ch.emit(ctx, transportError(err))
			}
			return
		}

		msg := Decode(ev.Data)
		if !ch.emit(ctx, msg) || msg.Kind.Terminal() {
			return
		}
	}

	if ctx.Err() == nil {
		ch.emit(ctx, transportError(errors.New("stream closed by server")))
	}
}

func (ch *Channel) emit(ctx context.Context, msg Message) bool {
	select {
	case ch.msgs <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func transportError(err error) Message {
	return Message{Kind: TransportError, Err: fmt.Errorf("%w: %v", ErrConnectionLost, err)}
}
