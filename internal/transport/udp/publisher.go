// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	applog "spectrum/internal/log"
	"spectrum/internal/transport"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = 16 * time.Millisecond

// HeaderSize is the fixed packet prefix: seq, timestamp and band count.
const HeaderSize = 4 + 8 + 2

// UDPPublisher polls a band source at its own interval and sends the bars
// and peaks as one datagram per tick.
type UDPPublisher struct {
	sender   *UDPSender
	source   transport.BandSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // guards ticker and doneChan

	sequenceNum uint32

	bars, peaks  []float64
	f32          []float32
	packetBuffer *bytes.Buffer
}

// NewUDPPublisher prepares a publisher for up to bands bands.
func NewUDPPublisher(interval time.Duration, sender *UDPSender, source transport.BandSource, bands int) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: band source cannot be nil")
	}
	if bands <= 0 || bands > math.MaxUint16 {
		return nil, fmt.Errorf("UDPPublisher: invalid band count %d", bands)
	}
	if interval <= 0 {
		interval = DefaultInterval
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s, Bands: %d)", interval, bands)
	return &UDPPublisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		bars:         make([]float64, bands),
		peaks:        make([]float64, bands),
		f32:          make([]float32, 2*bands),
		packetBuffer: bytes.NewBuffer(make([]byte, 0, HeaderSize+8*bands)),
	}, nil
}

// Start launches the publishing goroutine. Calling it twice is a no-op.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, done := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				if err := p.publish(time.Now()); err != nil {
					applog.Debugf("UDPPublisher: %v", err)
				}
			case <-done:
				return
			}
		}
	}()
}

// Stop ends the goroutine and waits for it. Calling it twice is a no-op.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("UDPPublisher: Stopped after %d packets", p.sequenceNum)
	return nil
}

/*
Packet layout, big endian:

	| seq uint32 | timestamp int64 (ns) | count uint16 | bars [count]float32 | peaks [count]float32 |
*/

// publish fetches the current levels and sends one packet.
func (p *UDPPublisher) publish(now time.Time) error {
	n := p.source.BandsInto(p.bars, p.peaks)
	for i := range n {
		p.f32[i] = float32(p.bars[i])
		p.f32[n+i] = float32(p.peaks[i])
	}

	p.sequenceNum++
	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, now.UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(n))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32[:2*n])
	}
	if err != nil {
		return fmt.Errorf("packing packet %d: %w", p.sequenceNum, err)
	}
	return p.sender.Send(p.packetBuffer.Bytes())
}

// Close stops the publisher.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*UDPPublisher)(nil)

// Packet is a decoded datagram.
type Packet struct {
	Seq       uint32
	Timestamp int64
	Bars      []float32
	Peaks     []float32
}

var errShortPacket = errors.New("udp: short packet")

// DecodePacket parses a datagram produced by UDPPublisher.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, errShortPacket
	}
	pkt := Packet{
		Seq:       binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
	}
	n := int(binary.BigEndian.Uint16(b[12:14]))
	if len(b) != HeaderSize+8*n {
		return Packet{}, fmt.Errorf("udp: packet with %d bands has %d bytes", n, len(b))
	}
	pkt.Bars = make([]float32, n)
	pkt.Peaks = make([]float32, n)
	body := b[HeaderSize:]
	for i := range n {
		pkt.Bars[i] = math.Float32frombits(binary.BigEndian.Uint32(body[4*i:]))
		pkt.Peaks[i] = math.Float32frombits(binary.BigEndian.Uint32(body[4*(n+i):]))
	}
	return pkt, nil
}
