// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindTable(t *testing.T) {
	assert.Equal(t, "PACKETS", KindGeneric.Table())
	assert.Equal(t, "PAGE", KindPaging.Table())
	assert.Equal(t, "LAC_CID", KindLacCid.Table())
	assert.Equal(t, "NEIGHBORS", KindNeighbors.Table())
}

func TestPeopleTimeLayout(t *testing.T) {
	ts := time.Date(2018, 1, 1, 23, 20, 5, 0, time.UTC)
	assert.Equal(t, "2018-01-0123:20:05", ts.Format(PeopleTimeLayout))
}
