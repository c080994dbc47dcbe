// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package gsmtap

import (
	"encoding/binary"
	"strconv"
)

// GSM 04.08 radio resource message types decoded beyond the type octet.
const (
	// MsgPagingRequest1 is Paging Request Type 1 on the CCCH.
	MsgPagingRequest1 = 33
	// MsgSystemInfo6 is System Information Type 6 on the SACCH, carrying
	// the serving cell identity and location area.
	MsgSystemInfo6 = 30
)

const pdRadioResource = 0x06

// dissectUM decodes the Um payload above the GSMTAP header. Messages
// that cannot be decoded leave the frame with GSMTAP as its highest
// layer; this is not an error, the decoder stores them as generic.
func dissectUM(frame *Frame, chanType byte, data []byte) {
	base := chanType &^ ChanACCH
	sacch := chanType&ChanACCH != 0

	var l3 []byte
	var layerName string
	switch {
	case sacch:
		// SACCH: 2 octet L1 header, then the LAPDm address, control and
		// length octets before L3.
		if len(data) < 5 {
			return
		}
		l3 = data[5:]
		layerName = "gsm_a.dtap"
	case base == ChanBCCH || base == ChanCCCH || base == ChanAGCH || base == ChanPCH:
		// CCCH class downlink: a single L2 pseudo length octet before L3.
		if len(data) < 1 || data[0]&0x03 != 0x01 {
			return
		}
		l3 = data[1:]
		layerName = "gsm_a.ccch"
	case base == ChanSDCCH || base == ChanSDCCH4 || base == ChanSDCCH8 || base == ChanTCHF || base == ChanTCHH:
		// LAPDm address, control and length octets before L3.
		if len(data) < 3 {
			return
		}
		l3 = data[3:]
		layerName = "gsm_a.dtap"
	default:
		return
	}

	if len(l3) < 2 || l3[0]&0x0f != pdRadioResource {
		return
	}
	msgType := l3[1]

	fields := FieldView{
		"gsm_a_dtap_msg_rr_type": strconv.Itoa(int(msgType)),
	}

	switch msgType {
	case MsgPagingRequest1:
		dissectPagingRequest1(fields, l3[2:])
	case MsgSystemInfo6:
		dissectSystemInfo6(fields, l3[2:])
	}

	frame.AddLayer(layerName, fields)
}

// dissectPagingRequest1 decodes GSM 04.08 9.1.22: one octet of page mode
// and channels needed, then the Mobile Identity LV.
func dissectPagingRequest1(fields FieldView, rest []byte) {
	if len(rest) < 1 {
		return
	}
	fields["gsm_a_rr_page_mode"] = strconv.Itoa(int(rest[0] & 0x03))
	fields["gsm_a_rr_chnl_needed_ch1"] = strconv.Itoa(int(rest[0] >> 4 & 0x03))
	fields["gsm_a_rr_chnl_needed_ch2"] = strconv.Itoa(int(rest[0] >> 6 & 0x03))

	// Mobile Identity 1, LV encoded.
	if len(rest) < 2 {
		return
	}
	idLen := int(rest[1])
	if idLen < 1 || len(rest) < 2+idLen {
		return
	}
	fields["gsm_a_ie_mobileid_type"] = strconv.Itoa(int(rest[2] & 0x07))
}

// dissectSystemInfo6 decodes GSM 04.08 9.1.40: Cell Identity, then the
// Location Area Identification whose last two octets are the LAC.
func dissectSystemInfo6(fields FieldView, rest []byte) {
	if len(rest) < 7 {
		return
	}
	cellID := binary.BigEndian.Uint16(rest[0:2])
	lac := binary.BigEndian.Uint16(rest[5:7])
	fields["gsm_a_bssmap_cell_ci"] = strconv.FormatUint(uint64(cellID), 10)
	fields["gsm_a_lac"] = strconv.FormatUint(uint64(lac), 10)
}
