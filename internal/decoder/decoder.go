// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.

// Package decoder drains the shared queue, classifies each frame,
// projects it into a typed record and inserts it into the store.
// Decode faults are absorbed per frame; only store faults that survive
// a retry take the worker down.
package decoder

import (
	"context"
	"errors"
	"time"

	"github.com/finding-ray/antikythera/internal/queue"
	"github.com/finding-ray/antikythera/internal/repository"
	"github.com/finding-ray/antikythera/internal/telemetry"
	"github.com/finding-ray/antikythera/pkg/gsmtap"
	"github.com/finding-ray/antikythera/pkg/log"
	"github.com/finding-ray/antikythera/pkg/schema"
)

// getTimeout bounds one blocking queue read. An expiry is not an error;
// file replay may simply be slow.
const getTimeout = 10 * time.Second

// Decoder is one worker of the decode pool.
type Decoder struct {
	ID    string
	queue *queue.Queue
	repo  *repository.PacketRepository
}

func New(id string, q *queue.Queue) *Decoder {
	return &Decoder{
		ID:    id,
		queue: q,
		repo:  repository.GetPacketRepository(),
	}
}

// Run is the worker main loop. It exits when ctx is cancelled or the
// queue is closed and drained, or on an unrecoverable store error.
func (d *Decoder) Run(ctx context.Context) {
	log.Debugf("%s: worker started successfully", d.ID)

	for {
		frame, err := d.queue.Get(ctx, getTimeout)
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrTimeout):
			log.Infof("%s: Queue empty", d.ID)
			continue
		case errors.Is(err, queue.ErrClosed):
			log.Infof("%s: Queue closed, exiting", d.ID)
			return
		default:
			log.Infof("%s: Exiting", d.ID)
			return
		}
		telemetry.QueueDepth.Set(float64(d.queue.Len()))
		log.Tracef("%s: consumed frame, queue size is now %d", d.ID, d.queue.Len())

		if err := d.handle(frame); err != nil {
			log.Errorf("%s: unrecoverable store error: %s", d.ID, err.Error())
			return
		}
	}
}

// handle decodes and stores one frame. A non-nil return is fatal to the
// worker; recoverable faults are logged and swallowed here.
func (d *Decoder) handle(frame *gsmtap.Frame) error {
	kind, subtype := Classify(frame)
	d.logPacketInfo(frame, kind, subtype)

	packet, err := Project(frame, kind)
	if err != nil {
		reason := telemetry.SkipParse
		switch {
		case errors.Is(err, ErrLayerNotFound):
			reason = telemetry.SkipLayer
		case errors.Is(err, ErrMissingField):
			reason = telemetry.SkipMissing
		}
		telemetry.FramesSkipped.WithLabelValues(reason).Inc()
		log.Warnf("%s: skipping frame %d: %s", d.ID, frame.Number, err.Error())
		return nil
	}

	err = d.repo.Insert(packet)
	if err != nil && repository.IsDuplicateHash(err) {
		telemetry.FramesSkipped.WithLabelValues(telemetry.SkipDuplicate).Inc()
		log.Warnf("%s: duplicate hash %s, skipping frame %d", d.ID, packet.Hash, frame.Number)
		return nil
	}
	if err != nil {
		// One retry; the storage layer already waited out its busy
		// timeout, a second failure is not transient.
		log.Warnf("%s: insert failed, retrying once: %s", d.ID, err.Error())
		if err = d.repo.Insert(packet); err != nil {
			if repository.IsDuplicateHash(err) {
				telemetry.FramesSkipped.WithLabelValues(telemetry.SkipDuplicate).Inc()
				log.Warnf("%s: duplicate hash %s, skipping frame %d", d.ID, packet.Hash, frame.Number)
				return nil
			}
			return err
		}
	}

	telemetry.FramesDecoded.WithLabelValues(kind.String()).Inc()
	return nil
}

// logPacketInfo emits the per-frame classification line at debug level.
// Frames of an unimplemented type or without a subtype are still stored
// (as generic); their line names them as undecoded or missing subtype.
func (d *Decoder) logPacketInfo(frame *gsmtap.Frame, kind schema.Kind, subtype string) {
	layerName := frame.HighestLayer()
	index := frame.Number - 1
	brief := packetBrief(frame)

	switch {
	case kind != schema.KindGeneric:
		log.Debugf("%s: found packet %s at index %d '%s'", d.ID, layerName, index, brief)
	case subtype != "":
		log.Debugf("%s: undecoded packet %s at index %d '%s'", d.ID, layerName, index, brief)
	case layerName != "" && layerName != "GSMTAP":
		log.Debugf("%s: missing subtype packet %s at index %d '%s'", d.ID, layerName, index, brief)
	default:
		log.Debugf("%s: generic packet %s at index %d '%s'", d.ID, layerName, index, brief)
	}
}

// packetBrief is a best-effort one-line summary, empty if nothing
// useful is available.
func packetBrief(frame *gsmtap.Frame) string {
	fields, ok := frame.Layer(frame.HighestLayer())
	if !ok {
		return ""
	}
	if v, ok := fields.Get("gsm_a_dtap_msg_rr_type"); ok {
		return "rr type " + v
	}
	return ""
}
