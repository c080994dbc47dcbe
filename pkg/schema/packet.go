// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package schema

// Kind tags the variant of a decoded packet and selects the table the
// record is stored into.
type Kind int

const (
	// KindGeneric covers every frame the decision table maps to no other
	// kind; only its GSMTAP data is stored. Stored in PACKETS.
	KindGeneric Kind = iota
	// KindPaging is a CCCH paging request (message type 33). Stored in PAGE.
	KindPaging
	// KindLacCid is a DTAP system information message carrying the serving
	// cell identity (message type 30). Stored in LAC_CID.
	KindLacCid
	// KindNeighbors is reserved for neighbour cell reports; no dissection
	// feeds it yet. Stored in NEIGHBORS.
	KindNeighbors
)

func (k Kind) String() string {
	switch k {
	case KindPaging:
		return "paging"
	case KindLacCid:
		return "system"
	case KindNeighbors:
		return "neighbors"
	default:
		return "generic"
	}
}

// Table returns the name of the table rows of this kind are inserted into.
func (k Kind) Table() string {
	switch k {
	case KindPaging:
		return "PAGE"
	case KindLacCid:
		return "LAC_CID"
	case KindNeighbors:
		return "NEIGHBORS"
	default:
		return "PACKETS"
	}
}

// PeopleTimeLayout is the human readable timestamp layout used in all
// tables. There is no separator between date and time; the layout is kept
// for compatibility with existing databases.
const PeopleTimeLayout = "2006-01-0215:04:05"

// Packet is the decoded projection of a captured frame: the GSMTAP prefix
// common to all variants plus at most one variant payload, selected by Kind.
// A packet is stored in exactly one table.
type Packet struct {
	Hash        string  `db:"HASH"`
	UnixTime    float64 `db:"UnixTime"`
	PeopleTime  string  `db:"PeopleTime"`
	Channel     float64 `db:"CHANNEL"`
	SignalDBM   float64 `db:"DBM"`
	ARFCN       float64 `db:"ARFCN"`
	FrameNumber float64 `db:"FrameNumber"`

	Kind Kind `db:"-"`

	Paging    *PagingInfo    `db:"-"`
	LacCid    *LacCidInfo    `db:"-"`
	Neighbors *NeighborsInfo `db:"-"`
}

// PagingInfo carries the CCCH paging request fields. The dissector exposes
// them as enumerated strings and they are stored in their raw string form.
type PagingInfo struct {
	IDType     string `db:"idType"`
	MsgType    string `db:"msgType"`
	Mode       string `db:"MODE"`
	ChanReqCh1 string `db:"reqChanOne"`
	ChanReqCh2 string `db:"reqChanTwo"`
}

// LacCidInfo carries the serving cell identity from a system information
// message.
type LacCidInfo struct {
	LAC float64 `db:"LAC"`
	CID float64 `db:"CID"`
}

// NeighborsInfo carries a neighbour cell report.
type NeighborsInfo struct {
	LAC      float64 `db:"LAC"`
	CID      float64 `db:"CID"`
	NCellLAC float64 `db:"N_CELL_LAC"`
}
