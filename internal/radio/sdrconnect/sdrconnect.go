// Package sdrconnect drives an SDRconnect instance over its websocket API.
// Tuning and audio are set_property requests; signal_power property_changed
// events become the sample feed.
package sdrconnect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/websocket"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
	"github.com/roman-kulish/radio-scanner/internal/radio"
)

// DefaultAddress is where SDRconnect listens by default.
const DefaultAddress = "127.0.0.1:5454"

const (
	eventSetProperty     = "set_property"
	eventPropertyChanged = "property_changed"
	eventStreamEnable    = "device_stream_enable"

	propertyVFOFrequency = "device_vfo_frequency"
	propertyAudioMute    = "audio_mute"
	propertySignalPower  = "signal_power"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("sdrconnect: connection closed")

var _ radio.Receiver = (*Client)(nil)

// Message is the JSON frame exchanged with SDRconnect.
type Message struct {
	EventType string `json:"event_type"`
	Property  string `json:"property"`
	Value     string `json:"value"`
}

// WithLogger sets the logger for the client
func WithLogger(logger *slog.Logger) func(c *Client) {
	return func(c *Client) {
		c.logger = logger.With(slog.String("device", "sdrconnect"))
	}
}

// Client implements radio.Receiver on top of a websocket connection.
type Client struct {
	conn *websocket.Conn
	send sync.Mutex

	samples chan radio.Sample
	tuned   atomic.Int64
	enabled atomic.Bool
	closed  atomic.Bool
	wg      sync.WaitGroup

	logger *slog.Logger
}

// Dial connects to SDRconnect at address (host:port).
func Dial(ctx context.Context, address string, options ...func(c *Client)) (*Client, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	cfg, err := websocket.NewConfig(fmt.Sprintf("ws://%s/", address), fmt.Sprintf("http://%s/", host))
	if err != nil {
		return nil, fmt.Errorf("error creating websocket config: %w", err)
	}

	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SDRconnect at %s: %w", address, err)
	}

	return NewClient(conn, options...), nil
}

// NewClient wraps an established connection and starts reading events.
func NewClient(conn *websocket.Conn, options ...func(c *Client)) *Client {
	c := Client{
		conn:    conn,
		samples: make(chan radio.Sample, 16),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&c)
	}

	c.wg.Add(1)
	go c.receive()

	return &c
}

func (c *Client) receive() {
	defer c.wg.Done()
	defer close(c.samples)

	for {
		var msg Message
		if err := websocket.JSON.Receive(c.conn, &msg); err != nil {
			if !c.closed.Load() && !errors.Is(err, io.EOF) {
				c.logger.Error(fmt.Sprintf("error receiving message: %s", err.Error()))
			}
			return
		}

		if msg.EventType != eventPropertyChanged {
			continue
		}

		switch msg.Property {
		case propertyVFOFrequency:
			f, err := strconv.ParseInt(msg.Value, 10, 64)
			if err != nil {
				c.logger.Warn("invalid VFO frequency", slog.String("value", msg.Value))
				continue
			}
			c.tuned.Store(f)
		case propertySignalPower:
			if !c.enabled.Load() {
				continue
			}
			power, err := strconv.ParseFloat(msg.Value, 64)
			if err != nil {
				c.logger.Warn("invalid signal power", slog.String("value", msg.Value))
				continue
			}
			c.publish(radio.Sample{
				Timestamp: time.Now(),
				Frequency: freqman.Frequency(c.tuned.Load()),
				Power:     power,
			})
		}
	}
}

func (c *Client) publish(s radio.Sample) {
	select {
	case c.samples <- s:
	default:
		c.logger.Debug("sample dropped, consumer is slow")
	}
}

func (c *Client) request(msg Message) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.send.Lock()
	defer c.send.Unlock()

	if err := websocket.JSON.Send(c.conn, msg); err != nil {
		return fmt.Errorf("error sending %s %s: %w", msg.EventType, msg.Property, err)
	}
	return nil
}

func (c *Client) setProperty(property, value string) error {
	return c.request(Message{EventType: eventSetProperty, Property: property, Value: value})
}

func (c *Client) SetTargetFrequency(f freqman.Frequency) error {
	if err := c.setProperty(propertyVFOFrequency, strconv.FormatInt(int64(f), 10)); err != nil {
		return err
	}
	c.tuned.Store(int64(f))
	return nil
}

func (c *Client) Enable() error {
	c.enabled.Store(true)
	if err := c.request(Message{EventType: eventStreamEnable, Value: "true"}); err != nil {
		c.enabled.Store(false)
		return err
	}
	return nil
}

func (c *Client) Disable() error {
	c.enabled.Store(false)
	return c.request(Message{EventType: eventStreamEnable, Value: "false"})
}

func (c *Client) StartAudio() error {
	return c.setProperty(propertyAudioMute, "false")
}

func (c *Client) StopAudio() error {
	return c.setProperty(propertyAudioMute, "true")
}

func (c *Client) Samples() <-chan radio.Sample {
	return c.samples
}

// Close closes the connection and waits for the reader to exit.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	err := c.conn.Close()
	c.wg.Wait()
	return err
}
