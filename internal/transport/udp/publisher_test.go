// SPDX-License-Identifier: MIT
package udp

import (
	"net"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu    sync.Mutex
	bars  []float64
	peaks []float64
}

func (f *fakeSource) BandsInto(bars, peaks []float64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := copy(bars, f.bars)
	copy(peaks, f.peaks)
	return n
}

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newPublisher(t *testing.T, target net.Addr, src *fakeSource, interval time.Duration) *UDPPublisher {
	t.Helper()
	sender, err := NewUDPSender(target.String())
	if err != nil {
		t.Fatalf("NewUDPSender() error: %v", err)
	}
	t.Cleanup(func() { sender.Close() })
	p, err := NewUDPPublisher(interval, sender, src, 4)
	if err != nil {
		t.Fatalf("NewUDPPublisher() error: %v", err)
	}
	return p
}

func readPacket(t *testing.T, conn *net.UDPConn) Packet {
	t.Helper()
	buf := make([]byte, 2048)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	pkt, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatalf("DecodePacket() error: %v", err)
	}
	return pkt
}

func TestPublishPacketLayout(t *testing.T) {
	conn := listen(t)
	src := &fakeSource{bars: []float64{1, 2, 3, 4}, peaks: []float64{5, 6, 7, 8}}
	p := newPublisher(t, conn.LocalAddr(), src, time.Hour)

	now := time.Unix(1234, 5678)
	if err := p.publish(now); err != nil {
		t.Fatalf("publish() error: %v", err)
	}
	pkt := readPacket(t, conn)

	if pkt.Seq != 1 || pkt.Timestamp != now.UnixNano() {
		t.Errorf("header = seq %d ts %d", pkt.Seq, pkt.Timestamp)
	}
	for i := range 4 {
		if pkt.Bars[i] != float32(src.bars[i]) || pkt.Peaks[i] != float32(src.peaks[i]) {
			t.Fatalf("band %d = (%v, %v)", i, pkt.Bars[i], pkt.Peaks[i])
		}
	}

	_ = p.publish(now)
	if pkt := readPacket(t, conn); pkt.Seq != 2 {
		t.Errorf("second packet seq = %d, want 2", pkt.Seq)
	}
}

func TestPublisherStartStop(t *testing.T) {
	conn := listen(t)
	src := &fakeSource{bars: []float64{1, 1, 1, 1}, peaks: []float64{2, 2, 2, 2}}
	p := newPublisher(t, conn.LocalAddr(), src, 5*time.Millisecond)

	p.Start()
	p.Start()
	pkt := readPacket(t, conn)
	if pkt.Seq == 0 || len(pkt.Bars) != 4 {
		t.Errorf("packet = %+v", pkt)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() after Stop error: %v", err)
	}
}

func TestNewUDPPublisherValidation(t *testing.T) {
	conn := listen(t)
	sender, err := NewUDPSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()

	if _, err := NewUDPPublisher(time.Second, nil, &fakeSource{}, 4); err == nil {
		t.Error("nil sender accepted")
	}
	if _, err := NewUDPPublisher(time.Second, sender, nil, 4); err == nil {
		t.Error("nil source accepted")
	}
	if _, err := NewUDPPublisher(time.Second, sender, &fakeSource{}, 0); err == nil {
		t.Error("zero bands accepted")
	}
	p, err := NewUDPPublisher(0, sender, &fakeSource{}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if p.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", p.interval, DefaultInterval)
	}
}

func TestDecodePacketErrors(t *testing.T) {
	if _, err := DecodePacket(make([]byte, 5)); err == nil {
		t.Error("short packet accepted")
	}
	b := make([]byte, HeaderSize+4)
	b[13] = 2 // claims two bands
	if _, err := DecodePacket(b); err == nil {
		t.Error("truncated body accepted")
	}
}

func TestSenderClosed(t *testing.T) {
	conn := listen(t)
	s, err := NewUDPSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Send([]byte{1}); err == nil {
		t.Error("Send() after Close should fail")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func BenchmarkPublish(b *testing.B) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		b.Fatal(err)
	}
	defer conn.Close()
	sender, err := NewUDPSender(conn.LocalAddr().String())
	if err != nil {
		b.Fatal(err)
	}
	defer sender.Close()

	src := &fakeSource{bars: make([]float64, 126), peaks: make([]float64, 126)}
	p, err := NewUDPPublisher(time.Hour, sender, src, 126)
	if err != nil {
		b.Fatal(err)
	}
	now := time.Now()
	b.ReportAllocs()
	for b.Loop() {
		_ = p.publish(now)
	}
}
