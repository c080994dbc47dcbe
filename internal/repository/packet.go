// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package repository

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/finding-ray/antikythera/pkg/schema"
)

var (
	packetRepoOnce     sync.Once
	packetRepoInstance *PacketRepository
)

// PacketRepository stores decoded packets, one table per record kind.
// Every insert commits its own transaction; records are independent and
// no referential integrity is enforced across tables.
type PacketRepository struct {
	DB     *sqlx.DB
	driver string
}

func GetPacketRepository() *PacketRepository {
	packetRepoOnce.Do(func() {
		db := GetConnection()

		packetRepoInstance = &PacketRepository{
			DB:     db.DB,
			driver: "sqlite3",
		}
	})
	return packetRepoInstance
}

const insertGenericSQL = `INSERT INTO PACKETS (
	UnixTime, PeopleTime, CHANNEL, DBM, ARFCN, FrameNumber, HASH
) VALUES (
	:UnixTime, :PeopleTime, :CHANNEL, :DBM, :ARFCN, :FrameNumber, :HASH
);`

const insertPageSQL = `INSERT INTO PAGE (
	HASH, UnixTime, PeopleTime, CHANNEL, DBM, ARFCN, FrameNumber,
	idType, msgType, MODE, reqChanOne, reqChanTwo
) VALUES (
	:HASH, :UnixTime, :PeopleTime, :CHANNEL, :DBM, :ARFCN, :FrameNumber,
	:idType, :msgType, :MODE, :reqChanOne, :reqChanTwo
);`

const insertLacCidSQL = `INSERT INTO LAC_CID (
	HASH, UnixTime, PeopleTime, CHANNEL, DBM, ARFCN, FrameNumber, LAC, CID
) VALUES (
	:HASH, :UnixTime, :PeopleTime, :CHANNEL, :DBM, :ARFCN, :FrameNumber, :LAC, :CID
);`

const insertNeighborsSQL = `INSERT INTO NEIGHBORS (
	HASH, UnixTime, PeopleTime, CHANNEL, DBM, ARFCN, FrameNumber, LAC, CID, N_CELL_LAC
) VALUES (
	:HASH, :UnixTime, :PeopleTime, :CHANNEL, :DBM, :ARFCN, :FrameNumber, :LAC, :CID, :N_CELL_LAC
);`

// Insert stores the packet into the table selected by its kind.
func (r *PacketRepository) Insert(p *schema.Packet) error {
	switch p.Kind {
	case schema.KindPaging:
		return r.InsertPaging(p)
	case schema.KindLacCid:
		return r.InsertLacCid(p)
	case schema.KindNeighbors:
		return r.InsertNeighbors(p)
	default:
		return r.InsertGeneric(p)
	}
}

func (r *PacketRepository) InsertGeneric(p *schema.Packet) error {
	_, err := r.DB.NamedExec(insertGenericSQL, prefixArgs(p))
	return err
}

func (r *PacketRepository) InsertPaging(p *schema.Packet) error {
	if p.Paging == nil {
		return errors.New("paging packet without payload")
	}
	args := prefixArgs(p)
	args["idType"] = p.Paging.IDType
	args["msgType"] = p.Paging.MsgType
	args["MODE"] = p.Paging.Mode
	args["reqChanOne"] = p.Paging.ChanReqCh1
	args["reqChanTwo"] = p.Paging.ChanReqCh2
	_, err := r.DB.NamedExec(insertPageSQL, args)
	return err
}

func (r *PacketRepository) InsertLacCid(p *schema.Packet) error {
	if p.LacCid == nil {
		return errors.New("system packet without payload")
	}
	args := prefixArgs(p)
	args["LAC"] = ftoa(p.LacCid.LAC)
	args["CID"] = ftoa(p.LacCid.CID)
	_, err := r.DB.NamedExec(insertLacCidSQL, args)
	return err
}

func (r *PacketRepository) InsertNeighbors(p *schema.Packet) error {
	if p.Neighbors == nil {
		return errors.New("neighbors packet without payload")
	}
	args := prefixArgs(p)
	args["LAC"] = ftoa(p.Neighbors.LAC)
	args["CID"] = ftoa(p.Neighbors.CID)
	args["N_CELL_LAC"] = ftoa(p.Neighbors.NCellLAC)
	_, err := r.DB.NamedExec(insertNeighborsSQL, args)
	return err
}

// CountRows is a test and debugging helper.
func (r *PacketRepository) CountRows(table string) (int, error) {
	var n int
	err := r.DB.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	return n, err
}

func prefixArgs(p *schema.Packet) map[string]interface{} {
	return map[string]interface{}{
		"HASH":        p.Hash,
		"UnixTime":    p.UnixTime,
		"PeopleTime":  p.PeopleTime,
		"CHANNEL":     ftoa(p.Channel),
		"DBM":         ftoa(p.SignalDBM),
		"ARFCN":       ftoa(p.ARFCN),
		"FrameNumber": ftoa(p.FrameNumber),
	}
}

// The columns are permissive TEXT; integral values are stored without a
// fractional part the way the original databases hold them.
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsDuplicateHash reports whether an insert failed on the HASH primary
// key. Duplicates are skipped by the decoder, not treated as fatal.
func IsDuplicateHash(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
