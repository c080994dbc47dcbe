// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/finding-ray/antikythera/pkg/gsmtap"
	"github.com/finding-ray/antikythera/pkg/schema"
)

var (
	// ErrLayerNotFound marks a frame whose expected layer is absent.
	ErrLayerNotFound = errors.New("decoder: layer not found")
	// ErrMissingField marks a frame missing a required field.
	ErrMissingField = errors.New("decoder: missing field")
	// ErrBadField marks a frame whose field value failed to parse.
	ErrBadField = errors.New("decoder: unparseable field")
)

// Project reads the GSMTAP prefix and, for non-generic kinds, the
// variant fields out of the frame and builds the storable record.
func Project(f *gsmtap.Frame, kind schema.Kind) (*schema.Packet, error) {
	gsmtapLayer, ok := f.Layer("gsmtap")
	if !ok {
		return nil, fmt.Errorf("%w: gsmtap", ErrLayerNotFound)
	}

	p := &schema.Packet{
		Kind:       kind,
		Hash:       hashFrame(f),
		UnixTime:   f.SniffTimestamp,
		PeopleTime: time.Unix(0, int64(f.SniffTimestamp*1e9)).Format(schema.PeopleTimeLayout),
	}

	var err error
	if p.FrameNumber, err = numField(gsmtapLayer, "frame_nr"); err != nil {
		return nil, err
	}
	if p.Channel, err = numField(gsmtapLayer, "chan_type"); err != nil {
		return nil, err
	}
	if p.SignalDBM, err = numField(gsmtapLayer, "signal_dbm"); err != nil {
		return nil, err
	}
	if p.ARFCN, err = numField(gsmtapLayer, "arfcn"); err != nil {
		return nil, err
	}

	switch kind {
	case schema.KindPaging:
		p.Paging, err = projectPaging(f)
	case schema.KindLacCid:
		p.LacCid, err = projectLacCid(f)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func projectPaging(f *gsmtap.Frame) (*schema.PagingInfo, error) {
	fields, ok := f.Layer("gsm_a.ccch")
	if !ok {
		return nil, fmt.Errorf("%w: gsm_a.ccch", ErrLayerNotFound)
	}

	info := &schema.PagingInfo{}
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"gsm_a_ie_mobileid_type", &info.IDType},
		{"gsm_a_dtap_msg_rr_type", &info.MsgType},
		{"gsm_a_rr_page_mode", &info.Mode},
		{"gsm_a_rr_chnl_needed_ch1", &info.ChanReqCh1},
		{"gsm_a_rr_chnl_needed_ch2", &info.ChanReqCh2},
	} {
		v, ok := fields.Get(field.name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
		*field.dst = v
	}
	return info, nil
}

func projectLacCid(f *gsmtap.Frame) (*schema.LacCidInfo, error) {
	fields, ok := f.Layer("gsm_a.dtap")
	if !ok {
		return nil, fmt.Errorf("%w: gsm_a.dtap", ErrLayerNotFound)
	}

	// The prototype stored these two swapped; the correct mapping is
	// lac <- gsm_a_lac and cid <- gsm_a_bssmap_cell_ci.
	info := &schema.LacCidInfo{}
	var err error
	if info.LAC, err = numField(fields, "gsm_a_lac"); err != nil {
		return nil, err
	}
	if info.CID, err = numField(fields, "gsm_a_bssmap_cell_ci"); err != nil {
		return nil, err
	}
	return info, nil
}

func numField(fields gsmtap.FieldView, name string) (float64, error) {
	v, ok := fields.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadField, name, v)
	}
	return n, nil
}

// hashFrame derives the record hash from the frame identity mixed with
// the current wall clock, so replaying the same capture within one run
// cannot collide with the earlier pass.
func hashFrame(f *gsmtap.Frame) string {
	h := xxhash.New()
	h.Write(f.Raw)

	var tail [24]byte
	binary.LittleEndian.PutUint64(tail[0:8], uint64(f.Number))
	binary.LittleEndian.PutUint64(tail[8:16], uint64(int64(f.SniffTimestamp*1e9)))
	binary.LittleEndian.PutUint64(tail[16:24], uint64(time.Now().UnixNano()))
	h.Write(tail[:])

	return strconv.FormatUint(h.Sum64(), 16)
}
