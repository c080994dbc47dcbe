// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"

	"github.com/finding-ray/antikythera/internal/telemetry"
	"github.com/finding-ray/antikythera/pkg/gsmtap"
	"github.com/finding-ray/antikythera/pkg/log"
)

// Source yields dissected frames from a capture backend. Next blocks on
// a live handle until a frame arrives or ctx is cancelled, and returns
// io.EOF at the end of a capture file. A frame that fails dissection is
// skipped, not surfaced; only backend failures are returned.
type Source interface {
	Next(ctx context.Context) (*gsmtap.Frame, error)
	Close()
}

const snaplen = 65536

// livePollTimeout bounds one blocking read on the live handle so the
// worker can observe shutdown between reads.
const livePollTimeout = time.Second

// dissectNext numbers the packet and lifts it into a frame, skipping
// anything that carries no GSMTAP payload.
func dissectNext(pkt gopacket.Packet, number int) (*gsmtap.Frame, bool) {
	frame, err := gsmtap.Dissect(pkt, number)
	if err != nil {
		if !errors.Is(err, gsmtap.ErrNoGSMTAP) {
			telemetry.FramesSkipped.WithLabelValues(telemetry.SkipDissect).Inc()
			log.Warnf("capture: dissecting frame %d failed: %s", number, err.Error())
		}
		return nil, false
	}
	return frame, true
}

type liveSource struct {
	handle *pcap.Handle
	src    *gopacket.PacketSource
	number int
}

// NewLiveSource opens a live capture on the named radio/network
// interface, filtered down to GSMTAP traffic. The stream is infinite
// and not restartable.
func NewLiveSource(iface string) (Source, error) {
	handle, err := pcap.OpenLive(iface, snaplen, true, livePollTimeout)
	if err != nil {
		return nil, fmt.Errorf("capture: open live %s: %w", iface, err)
	}
	if err := handle.SetBPFFilter(fmt.Sprintf("udp port %d", gsmtap.Port)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("capture: bpf filter: %w", err)
	}
	return &liveSource{
		handle: handle,
		src:    gopacket.NewPacketSource(handle, handle.LinkType()),
	}, nil
}

func (s *liveSource) Next(ctx context.Context) (*gsmtap.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pkt, err := s.src.NextPacket()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			return nil, err
		}

		s.number++
		if frame, ok := dissectNext(pkt, s.number); ok {
			return frame, nil
		}
	}
}

func (s *liveSource) Close() {
	s.handle.Close()
}

type fileSource struct {
	f      *os.File
	r      *pcapgo.Reader
	number int
}

// NewFileSource opens a capture file. The stream is finite and
// restartable by constructing a new source for the same path.
func NewFileSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("capture: read %s: %w", path, err)
	}
	return &fileSource{f: f, r: r}, nil
}

func (s *fileSource) Next(ctx context.Context) (*gsmtap.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, ci, err := s.r.ReadPacketData()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		s.number++
		pkt := gopacket.NewPacket(data, s.r.LinkType(), gopacket.Default)
		pkt.Metadata().CaptureInfo = ci
		if frame, ok := dissectNext(pkt, s.number); ok {
			return frame, nil
		}
	}
}

func (s *fileSource) Close() {
	s.f.Close()
}
