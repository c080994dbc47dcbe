// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finding-ray/antikythera/pkg/gsmtap"
	"github.com/finding-ray/antikythera/pkg/schema"
)

func pagingFrame() *gsmtap.Frame {
	f := frameWithLayer("gsm_a.ccch", gsmtap.FieldView{
		"gsm_a_dtap_msg_rr_type":   "33",
		"gsm_a_ie_mobileid_type":   "4",
		"gsm_a_rr_page_mode":       "0",
		"gsm_a_rr_chnl_needed_ch1": "0",
		"gsm_a_rr_chnl_needed_ch2": "1",
	})
	f.SniffTimestamp = 1514766000.25
	f.Raw = []byte{0x02, 0x04, 0x01}
	return f
}

func systemFrame(lac, cid string) *gsmtap.Frame {
	f := frameWithLayer("gsm_a.dtap", gsmtap.FieldView{
		"gsm_a_dtap_msg_rr_type": "30",
		"gsm_a_lac":              lac,
		"gsm_a_bssmap_cell_ci":   cid,
	})
	f.SniffTimestamp = 1514766000.25
	f.Raw = []byte{0x02, 0x04, 0x02}
	return f
}

func TestProjectGeneric(t *testing.T) {
	f := frameWithLayer("", nil)
	f.SniffTimestamp = 1514766000.25

	p, err := Project(f, schema.KindGeneric)
	require.NoError(t, err)

	assert.Equal(t, schema.KindGeneric, p.Kind)
	assert.Equal(t, 123456.0, p.FrameNumber)
	assert.Equal(t, 2.0, p.Channel)
	assert.Equal(t, -60.0, p.SignalDBM)
	assert.Equal(t, 42.0, p.ARFCN)
	assert.InDelta(t, 1514766000.25, p.UnixTime, 1e-6)
	assert.NotEmpty(t, p.Hash)
	assert.Nil(t, p.Paging)
	assert.Nil(t, p.LacCid)
}

func TestProjectPaging(t *testing.T) {
	p, err := Project(pagingFrame(), schema.KindPaging)
	require.NoError(t, err)

	require.NotNil(t, p.Paging)
	assert.Equal(t, "4", p.Paging.IDType)
	assert.Equal(t, "33", p.Paging.MsgType)
	assert.Equal(t, "0", p.Paging.Mode)
	assert.Equal(t, "0", p.Paging.ChanReqCh1)
	assert.Equal(t, "1", p.Paging.ChanReqCh2)
}

// The first prototype stored the location area code and the cell
// identity swapped; the projection must map them straight.
func TestProjectSystemMapsLacAndCid(t *testing.T) {
	p, err := Project(systemFrame("1", "1337"), schema.KindLacCid)
	require.NoError(t, err)

	require.NotNil(t, p.LacCid)
	assert.Equal(t, 1.0, p.LacCid.LAC)
	assert.Equal(t, 1337.0, p.LacCid.CID)
}

func TestProjectPeopleTimeLayout(t *testing.T) {
	f := frameWithLayer("", nil)
	f.SniffTimestamp = 1514766000 // 2018-01-01 in some zone

	p, err := Project(f, schema.KindGeneric)
	require.NoError(t, err)

	// YYYY-MM-DDHH:MM:SS with no separator between date and time.
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}\d{2}:\d{2}:\d{2}$`, p.PeopleTime)
}

func TestProjectMissingGSMTAPField(t *testing.T) {
	f := &gsmtap.Frame{Number: 1}
	f.AddLayer("gsmtap", gsmtap.FieldView{
		"frame_nr": "1", "chan_type": "2", "signal_dbm": "-60",
		// arfcn missing
	})

	_, err := Project(f, schema.KindGeneric)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestProjectUnparseableField(t *testing.T) {
	f := &gsmtap.Frame{Number: 1}
	f.AddLayer("gsmtap", gsmtap.FieldView{
		"frame_nr": "1", "chan_type": "2", "signal_dbm": "-60", "arfcn": "radio",
	})

	_, err := Project(f, schema.KindGeneric)
	assert.ErrorIs(t, err, ErrBadField)
}

func TestProjectMissingVariantLayer(t *testing.T) {
	f := frameWithLayer("", nil)

	_, err := Project(f, schema.KindPaging)
	assert.ErrorIs(t, err, ErrLayerNotFound)
}

func TestProjectMissingVariantField(t *testing.T) {
	f := frameWithLayer("gsm_a.dtap", gsmtap.FieldView{
		"gsm_a_dtap_msg_rr_type": "30",
		"gsm_a_lac":              "1",
		// gsm_a_bssmap_cell_ci missing
	})

	_, err := Project(f, schema.KindLacCid)
	assert.ErrorIs(t, err, ErrMissingField)
}

// No two records of a run may share a hash, including across replays of
// the same frame within the run.
func TestHashUniqueness(t *testing.T) {
	seen := make(map[string]bool)

	for pass := 0; pass < 2; pass++ {
		for i := 1; i <= 500; i++ {
			f := frameWithLayer("", nil)
			f.Number = i
			f.Raw = []byte{byte(i), byte(i >> 8)}
			f.SniffTimestamp = 1514766000.25 // identical timestamps are allowed

			p, err := Project(f, schema.KindGeneric)
			require.NoError(t, err)
			assert.False(t, seen[p.Hash], "hash %s seen twice", p.Hash)
			seen[p.Hash] = true
		}
	}
}
