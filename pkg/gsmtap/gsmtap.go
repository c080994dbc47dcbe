// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.

// Package gsmtap dissects GSMTAP-encapsulated GSM radio-layer messages
// into string-typed field views, the way a tshark field tree exposes
// them. Only the security-relevant subset of GSM_A is decoded in full;
// other radio resource messages get a GSM_A layer carrying just their
// message type, and anything else keeps GSMTAP as its highest layer.
//
// Reference: http://osmocom.org/projects/baseband/wiki/GSMTAP
package gsmtap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Port is the registered GSMTAP UDP port.
const Port = 4729

// headerLen is the fixed GSMTAP v2 header size in bytes (hdr_len = 4
// 32-bit words).
const headerLen = 16

const version = 0x02

// GSMTAP payload types.
const (
	TypeUM = 0x01
)

// Channel types carried in the sub_type octet. The SACCH variants set
// the ACCH bit on top of the base channel.
const (
	ChanUnknown = 0x00
	ChanBCCH    = 0x01
	ChanCCCH    = 0x02
	ChanRACH    = 0x03
	ChanAGCH    = 0x04
	ChanPCH     = 0x05
	ChanSDCCH   = 0x06
	ChanSDCCH4  = 0x07
	ChanSDCCH8  = 0x08
	ChanTCHF    = 0x09
	ChanTCHH    = 0x0a
	ChanPACCH   = 0x0b

	// ChanACCH flags a SACCH riding on the base channel.
	ChanACCH = 0x80
)

// ARFCN flag bits in the 16-bit arfcn field.
const (
	arfcnFlagPCS    = 0x8000
	arfcnFlagUplink = 0x4000
	arfcnMask       = 0x3fff
)

var (
	// ErrNoGSMTAP is returned for packets that carry no GSMTAP payload.
	ErrNoGSMTAP = errors.New("gsmtap: no GSMTAP payload")

	errShortHeader = errors.New("gsmtap: truncated header")
	errBadVersion  = errors.New("gsmtap: unsupported version")
)

// Dissect extracts the GSMTAP payload from a captured packet and builds
// the layered field view. number is the 1-based ordinal of the packet in
// its capture.
func Dissect(pkt gopacket.Packet, number int) (*Frame, error) {
	payload, err := gsmtapPayload(pkt)
	if err != nil {
		return nil, err
	}

	ts := float64(pkt.Metadata().Timestamp.UnixNano()) / 1e9
	return DissectPayload(payload, number, ts)
}

// gsmtapPayload locates the UDP datagram addressed to the GSMTAP port.
func gsmtapPayload(pkt gopacket.Packet) ([]byte, error) {
	if udpLayer := pkt.Layer(layers.LayerTypeUDP); udpLayer != nil {
		udp := udpLayer.(*layers.UDP)
		if udp.DstPort == Port || udp.SrcPort == Port {
			return udp.Payload, nil
		}
		return nil, ErrNoGSMTAP
	}
	// Some capture sources hand us the bare datagram payload.
	if app := pkt.ApplicationLayer(); app != nil && len(app.Payload()) >= headerLen && app.Payload()[0] == version {
		return app.Payload(), nil
	}
	return nil, ErrNoGSMTAP
}

// DissectPayload builds the layered field view from a bare GSMTAP
// datagram payload. number is the 1-based capture ordinal and sniffTime
// the capture wall-clock time in seconds.
func DissectPayload(payload []byte, number int, sniffTime float64) (*Frame, error) {
	if len(payload) < headerLen {
		return nil, errShortHeader
	}
	if payload[0] != version {
		return nil, fmt.Errorf("%w: %#02x", errBadVersion, payload[0])
	}

	hdrLen := int(payload[1]) * 4
	if hdrLen < headerLen || hdrLen > len(payload) {
		return nil, errShortHeader
	}

	frame := &Frame{
		Number:         number,
		SniffTimestamp: sniffTime,
		Raw:            payload,
	}

	chanType := payload[12]
	arfcn := binary.BigEndian.Uint16(payload[4:6]) & arfcnMask
	signal := int8(payload[6])
	frameNr := binary.BigEndian.Uint32(payload[8:12])

	frame.AddLayer("gsmtap", FieldView{
		"frame_nr":   strconv.FormatUint(uint64(frameNr), 10),
		"chan_type":  strconv.Itoa(int(chanType)),
		"signal_dbm": strconv.Itoa(int(signal)),
		"arfcn":      strconv.FormatUint(uint64(arfcn), 10),
	})

	if payload[2] == TypeUM {
		dissectUM(frame, chanType, payload[hdrLen:])
	}
	return frame, nil
}
