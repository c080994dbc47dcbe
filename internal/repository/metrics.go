// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package repository

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/finding-ray/antikythera/pkg/log"
)

// Detection rule queries. Each rule reads a snapshot of its table; no
// cross-statement atomicity is needed, a record inserted mid-pass is
// picked up on the next pass.
//
// Reference:
//
//	SnoopSnitch metric catalogue:
//	https://opensource.srlabs.de/projects/snoopsnitch/wiki/IMSI_Catcher_Score

// ImposterCell reports whether some cell identity (LAC, CID) was
// received on two or more distinct ARFCNs. An IMSI catcher reusing the
// identity of a real cell has to transmit on a different frequency.
func (r *PacketRepository) ImposterCell() (bool, error) {
	query := sq.Select("LAC", "CID").
		From("LAC_CID").
		GroupBy("LAC", "CID").
		Having("COUNT(DISTINCT ARFCN) > 1")

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	type offender struct {
		LAC string `db:"LAC"`
		CID string `db:"CID"`
	}
	var offenders []offender
	if err := r.DB.Select(&offenders, sql, args...); err != nil {
		return false, err
	}

	for _, o := range offenders {
		log.Debugf("imposter cell LAC %s CID %s seen on multiple ARFCNs", o.LAC, o.CID)
	}
	if len(offenders) > 0 {
		log.Info("Same LAC/CID on different ARFCNs detected.")
		return true, nil
	}
	return false, nil
}

// InconsistentLac reports whether a LAC appears among the neighbour
// reports without ever being announced as the serving cell's own LAC.
//
// The serving cell is currently encoded as rows with LAC = CID; the
// NEIGHBORS ingestion is not complete yet and the rule stays
// experimental until it is.
func (r *PacketRepository) InconsistentLac() (bool, error) {
	var lacs []string
	err := r.DB.Select(&lacs,
		`SELECT DISTINCT LAC
		 FROM NEIGHBORS
		 EXCEPT
		 SELECT DISTINCT LAC
		 FROM NEIGHBORS
		 WHERE LAC = CID`)
	if err != nil {
		return false, err
	}

	log.Debugf("length of inconsistent LAC list %d", len(lacs))
	if len(lacs) > 0 {
		log.Info("Inconsistent LAC detected.")
		return true, nil
	}
	return false, nil
}

// LonelyCellID reports whether some location area contains exactly one
// distinct cell. A catcher spanning a fresh LAC is the only cell ever
// observed in it.
func (r *PacketRepository) LonelyCellID() (bool, error) {
	pairs := sq.Select("LAC", "CID").Distinct().From("LAC_CID")
	query := sq.Select("LAC").
		FromSelect(pairs, "pairs").
		GroupBy("LAC").
		Having("COUNT(*) = 1")

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	var lacs []string
	if err := r.DB.Select(&lacs, sql, args...); err != nil {
		return false, err
	}

	for _, lac := range lacs {
		log.Debugf("lonely location area %s", lac)
	}
	if len(lacs) > 0 {
		log.Info("Lonesome Location Area Code detected.")
		return true, nil
	}
	return false, nil
}
