// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/takeone-collective/archive/lib/codec"
)

// SnapshotExtension is the file extension Load associates with
// compiled snapshots.
const SnapshotExtension = ".arcs"

// ErrSnapshotCorrupt is returned when a snapshot's header or digest
// does not match its payload.
var ErrSnapshotCorrupt = errors.New("catalog snapshot corrupt")

// Snapshot layout:
//
//	magic   [4]byte  "ARCS"
//	version byte     snapshotVersion
//	digest  [32]byte BLAKE3 of the uncompressed CBOR payload
//	payload []byte   zstd(CBOR(Document))
var snapshotMagic = [4]byte{'A', 'R', 'C', 'S'}

const (
	snapshotVersion    = 1
	snapshotHeaderSize = len(snapshotMagic) + 1 + 32
)

var (
	snapshotEncoder *zstd.Encoder
	snapshotDecoder *zstd.Decoder
)

func init() {
	var err error
	snapshotEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("catalog: zstd encoder initialization failed: " + err.Error())
	}
	snapshotDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("catalog: zstd decoder initialization failed: " + err.Error())
	}
}

// documentDigest returns the hex BLAKE3 digest of the document's
// deterministic CBOR encoding.
func documentDigest(document Document) (string, error) {
	payload, err := codec.Marshal(document)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// EncodeSnapshot compiles the catalog into the snapshot format.
func EncodeSnapshot(catalog *Catalog) ([]byte, error) {
	payload, err := codec.Marshal(catalog.Document())
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	sum := blake3.Sum256(payload)

	var buffer bytes.Buffer
	buffer.Grow(snapshotHeaderSize + len(payload)/2)
	buffer.Write(snapshotMagic[:])
	buffer.WriteByte(snapshotVersion)
	buffer.Write(sum[:])
	buffer.Write(snapshotEncoder.EncodeAll(payload, nil))
	return buffer.Bytes(), nil
}

// DecodeSnapshot verifies and decodes a snapshot produced by
// EncodeSnapshot, then rebuilds the catalog through New so every
// invariant is checked again.
func DecodeSnapshot(data []byte) (*Catalog, error) {
	if len(data) < snapshotHeaderSize || !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic[:]) {
		return nil, fmt.Errorf("%w: missing header", ErrSnapshotCorrupt)
	}
	if version := data[len(snapshotMagic)]; version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSnapshotCorrupt, version)
	}
	expected := data[len(snapshotMagic)+1 : snapshotHeaderSize]

	payload, err := snapshotDecoder.DecodeAll(data[snapshotHeaderSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	sum := blake3.Sum256(payload)
	if !bytes.Equal(sum[:], expected) {
		return nil, fmt.Errorf("%w: digest mismatch", ErrSnapshotCorrupt)
	}

	var document Document
	if err := codec.Unmarshal(payload, &document); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return New(document.Events, document.Venues)
}

// WriteSnapshot writes the catalog snapshot to path, replacing any
// existing file atomically.
func WriteSnapshot(path string, catalog *Catalog) error {
	data, err := EncodeSnapshot(catalog)
	if err != nil {
		return err
	}
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
