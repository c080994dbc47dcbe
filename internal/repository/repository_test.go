// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finding-ray/antikythera/pkg/schema"
)

func init() {
	dir, err := os.MkdirTemp("", "antikythera-test-")
	if err != nil {
		panic(err)
	}
	db := filepath.Join(dir, "anti.sqlite3")
	if err := MigrateDB("sqlite3", db); err != nil {
		panic(err)
	}
	Connect("sqlite3", db)
}

func setup(t *testing.T) *PacketRepository {
	t.Helper()
	r := GetPacketRepository()
	for _, table := range []string{"PACKETS", "PAGE", "LAC_CID", "NEIGHBORS"} {
		_, err := r.DB.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	return r
}

var hashSeq int

func packet(kind schema.Kind) *schema.Packet {
	hashSeq++
	return &schema.Packet{
		Kind:        kind,
		Hash:        fmt.Sprintf("hash-%d", hashSeq),
		UnixTime:    1514766000.25,
		PeopleTime:  "2018-01-0123:20:00",
		Channel:     2,
		SignalDBM:   -60,
		ARFCN:       42,
		FrameNumber: 123456,
	}
}

func insertLacCid(t *testing.T, r *PacketRepository, lac, cid, arfcn float64) {
	t.Helper()
	p := packet(schema.KindLacCid)
	p.ARFCN = arfcn
	p.LacCid = &schema.LacCidInfo{LAC: lac, CID: cid}
	require.NoError(t, r.Insert(p))
}

func insertNeighbor(t *testing.T, r *PacketRepository, lac, cid float64) {
	t.Helper()
	p := packet(schema.KindNeighbors)
	p.Neighbors = &schema.NeighborsInfo{LAC: lac, CID: cid, NCellLAC: lac}
	require.NoError(t, r.Insert(p))
}

func TestInsertLocality(t *testing.T) {
	r := setup(t)

	generic := packet(schema.KindGeneric)
	require.NoError(t, r.Insert(generic))

	paging := packet(schema.KindPaging)
	paging.Paging = &schema.PagingInfo{
		IDType: "4", MsgType: "33", Mode: "0", ChanReqCh1: "0", ChanReqCh2: "1",
	}
	require.NoError(t, r.Insert(paging))

	system := packet(schema.KindLacCid)
	system.LacCid = &schema.LacCidInfo{LAC: 1, CID: 7}
	require.NoError(t, r.Insert(system))

	neighbors := packet(schema.KindNeighbors)
	neighbors.Neighbors = &schema.NeighborsInfo{LAC: 1, CID: 7, NCellLAC: 2}
	require.NoError(t, r.Insert(neighbors))

	// One row per frame, in exactly one table.
	for table, want := range map[string]int{
		"PACKETS": 1, "PAGE": 1, "LAC_CID": 1, "NEIGHBORS": 1,
	} {
		n, err := r.CountRows(table)
		require.NoError(t, err)
		assert.Equal(t, want, n, "table %s", table)
	}
}

func TestInsertStoresTextColumns(t *testing.T) {
	r := setup(t)
	insertLacCid(t, r, 1, 1337, 42)

	var row struct {
		LAC   string `db:"LAC"`
		CID   string `db:"CID"`
		ARFCN string `db:"ARFCN"`
		DBM   string `db:"DBM"`
	}
	require.NoError(t, r.DB.Get(&row, "SELECT LAC, CID, ARFCN, DBM FROM LAC_CID"))
	assert.Equal(t, "1", row.LAC)
	assert.Equal(t, "1337", row.CID)
	assert.Equal(t, "42", row.ARFCN)
	assert.Equal(t, "-60", row.DBM)
}

func TestInsertDuplicateHash(t *testing.T) {
	r := setup(t)

	p := packet(schema.KindGeneric)
	require.NoError(t, r.Insert(p))

	err := r.Insert(p)
	require.Error(t, err)
	assert.True(t, IsDuplicateHash(err))

	n, err := r.CountRows("PACKETS")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIsDuplicateHashOtherErrors(t *testing.T) {
	assert.False(t, IsDuplicateHash(nil))
	assert.False(t, IsDuplicateHash(fmt.Errorf("disk full")))
}

func TestImposterCellPositive(t *testing.T) {
	r := setup(t)

	// S1: the same cell identity on two frequencies.
	insertLacCid(t, r, 1, 7, 42)
	insertLacCid(t, r, 1, 7, 1337)

	hit, err := r.ImposterCell()
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestImposterCellSameARFCN(t *testing.T) {
	r := setup(t)

	// S2: repeated observation on one frequency is fine.
	insertLacCid(t, r, 1, 7, 42)
	insertLacCid(t, r, 1, 7, 42)

	hit, err := r.ImposterCell()
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestImposterCellDistinctCells(t *testing.T) {
	r := setup(t)

	// S3: different cells on different frequencies is fine.
	insertLacCid(t, r, 1, 7, 42)
	insertLacCid(t, r, 1, 8, 43)
	insertLacCid(t, r, 1, 9, 44)
	insertLacCid(t, r, 2, 10, 45)

	hit, err := r.ImposterCell()
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestImposterCellEmpty(t *testing.T) {
	r := setup(t)

	hit, err := r.ImposterCell()
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLonelyCellIDPositive(t *testing.T) {
	r := setup(t)

	// S4: LAC 3 contains a single cell.
	cells := [][2]float64{
		{1, 1}, {1, 2}, {1, 3},
		{2, 4}, {2, 5}, {2, 6}, {2, 7}, {2, 8},
		{3, 9},
	}
	for _, c := range cells {
		insertLacCid(t, r, c[0], c[1], 42)
	}

	hit, err := r.LonelyCellID()
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestLonelyCellIDNegative(t *testing.T) {
	r := setup(t)

	// S5: every pair is duplicated, but LAC 1 holds three distinct cells.
	for i := 0; i < 2; i++ {
		insertLacCid(t, r, 1, 122, 42)
		insertLacCid(t, r, 1, 132, 42)
		insertLacCid(t, r, 1, 1337, 42)
	}

	hit, err := r.LonelyCellID()
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLonelyCellIDPositiveDespiteDuplicates(t *testing.T) {
	r := setup(t)

	// S6: duplicated rows must not hide that LAC 2 holds one cell.
	for i := 0; i < 2; i++ {
		insertLacCid(t, r, 1, 122, 42)
		insertLacCid(t, r, 1, 132, 42)
		insertLacCid(t, r, 2, 1337, 42)
	}

	hit, err := r.LonelyCellID()
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestLonelyCellIDEmpty(t *testing.T) {
	r := setup(t)

	hit, err := r.LonelyCellID()
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInconsistentLacPositive(t *testing.T) {
	r := setup(t)

	// The serving cell (LAC = CID sentinel) announces LAC 13; a
	// neighbour in LAC 7 never shows up as anybody's serving LAC.
	insertNeighbor(t, r, 13, 13)
	insertNeighbor(t, r, 7, 1337)

	hit, err := r.InconsistentLac()
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestInconsistentLacNegative(t *testing.T) {
	r := setup(t)

	// Every observed LAC is also a serving LAC.
	insertNeighbor(t, r, 13, 13)
	insertNeighbor(t, r, 13, 1337)

	hit, err := r.InconsistentLac()
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInconsistentLacEmpty(t *testing.T) {
	r := setup(t)

	hit, err := r.InconsistentLac()
	require.NoError(t, err)
	assert.False(t, hit)
}
