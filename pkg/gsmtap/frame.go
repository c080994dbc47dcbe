// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package gsmtap

import (
	"sort"
	"strings"
)

// FieldView is the dissected view of one protocol layer: tshark style
// field names mapped to their string values.
type FieldView map[string]string

// FieldNames enumerates the available keys in stable order.
func (f FieldView) FieldNames() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Get returns the value of a field and whether it is present.
func (f FieldView) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// Has reports whether the field is present in the layer.
func (f FieldView) Has(name string) bool {
	_, ok := f[name]
	return ok
}

type layer struct {
	name   string
	fields FieldView
}

// Frame is one dissected GSMTAP-encapsulated message. It is held only
// while in flight between the capture worker, the queue and a decoder;
// after insertion it is dropped.
type Frame struct {
	// Number is the 1-based ordinal of the frame in its capture.
	Number int

	// SniffTimestamp is the absolute capture wall-clock time in seconds.
	SniffTimestamp float64

	// Raw is the undissected GSMTAP payload, kept for hashing.
	Raw []byte

	layers []layer
}

// HighestLayer names the topmost dissected layer, e.g. "GSMTAP",
// "GSM_A.CCCH" or "GSM_A.DTAP".
func (f *Frame) HighestLayer() string {
	if len(f.layers) == 0 {
		return ""
	}
	return strings.ToUpper(f.layers[len(f.layers)-1].name)
}

// Layer returns the field view of the named layer. Lookup is
// case-insensitive; layers are addressed by their lowercase name
// ("gsmtap", "gsm_a.ccch", "gsm_a.dtap").
func (f *Frame) Layer(name string) (FieldView, bool) {
	name = strings.ToLower(name)
	for _, l := range f.layers {
		if l.name == name {
			return l.fields, true
		}
	}
	return nil, false
}

// Layers lists the lowercase names of all dissected layers, bottom first.
func (f *Frame) Layers() []string {
	names := make([]string, len(f.layers))
	for i, l := range f.layers {
		names[i] = l.name
	}
	return names
}

// AddLayer appends a dissected layer on top of the existing ones.
func (f *Frame) AddLayer(name string, fields FieldView) {
	f.layers = append(f.layers, layer{name: strings.ToLower(name), fields: fields})
}
