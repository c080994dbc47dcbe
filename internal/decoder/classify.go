// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package decoder

import (
	"strings"

	"github.com/finding-ray/antikythera/pkg/gsmtap"
	"github.com/finding-ray/antikythera/pkg/schema"
)

// The packet class hierarchy of the first prototype collapsed into a
// pure decision table: (highest layer, subtype) selects the record kind,
// everything unknown degrades to a generic GSMTAP record.
var decisionTable = map[string]schema.Kind{
	"GSM_A.CCCH_33": schema.KindPaging,
	"GSM_A.DTAP_30": schema.KindLacCid,
}

// Subtype extracts the radio resource message type from the highest
// layer of the frame. An empty string means no subtype is present.
func Subtype(f *gsmtap.Frame) string {
	fields, ok := f.Layer(f.HighestLayer())
	if !ok {
		return ""
	}
	if v, ok := fields.Get("gsm_a_dtap_msg_rr_type"); ok {
		return v
	}
	if v, ok := fields.Get("msg_rr_type"); ok {
		return v
	}
	return ""
}

// Classify assigns exactly one record kind to the frame.
func Classify(f *gsmtap.Frame) (schema.Kind, string) {
	subtype := Subtype(f)
	if subtype == "" {
		return schema.KindGeneric, subtype
	}
	key := strings.ToUpper(f.HighestLayer()) + "_" + subtype
	if kind, ok := decisionTable[key]; ok {
		return kind, subtype
	}
	return schema.KindGeneric, subtype
}
