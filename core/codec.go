package core

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// FingerprintMUS is the MUS serializer for FileFingerprint.
var FingerprintMUS = fingerprintMUS{}

// SnapshotMUS is the MUS serializer for Snapshot. Entries are written in path order.
var SnapshotMUS = snapshotMUS{}

// IndexedVectorMUS is the MUS serializer for IndexedVector.
var IndexedVectorMUS = indexedVectorMUS{}

type fingerprintMUS struct{}

func (fingerprintMUS) Marshal(v FileFingerprint, bs []byte) (n int) {
	n = ord.String.Marshal(v.Path, bs)
	n += ord.String.Marshal(string(v.Hash), bs[n:])
	n += varint.Int64.Marshal(v.Size, bs[n:])
	return n + varint.Int64.Marshal(v.MTime, bs[n:])
}

func (fingerprintMUS) Unmarshal(bs []byte) (v FileFingerprint, n int, err error) {
	v.Path, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var (
		hash string
		n1   int
	)
	hash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if hash != "" {
		v.Hash = []byte(hash)
	}
	v.Size, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.MTime, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	return
}

func (fingerprintMUS) Size(v FileFingerprint) (size int) {
	size = ord.String.Size(v.Path)
	size += ord.String.Size(string(v.Hash))
	size += varint.Int64.Size(v.Size)
	return size + varint.Int64.Size(v.MTime)
}

type snapshotMUS struct{}

func (snapshotMUS) Marshal(v Snapshot, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, p := range v.Paths() {
		n += FingerprintMUS.Marshal(v[p], bs[n:])
	}
	return n
}

func (snapshotMUS) Unmarshal(bs []byte) (v Snapshot, n int, err error) {
	var count int
	count, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if count < 0 {
		err = fmt.Errorf("%w: negative snapshot length %d", ErrMalformedRecord, count)
		return
	}
	v = make(Snapshot, count)
	for i := 0; i < count; i++ {
		var (
			fp FileFingerprint
			n1 int
		)
		fp, n1, err = FingerprintMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v[fp.Path] = fp
	}
	return
}

func (snapshotMUS) Size(v Snapshot) (size int) {
	size = varint.Int.Size(len(v))
	for _, fp := range v {
		size += FingerprintMUS.Size(fp)
	}
	return size
}

type indexedVectorMUS struct{}

func (indexedVectorMUS) Marshal(v IndexedVector, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += varint.Int.Marshal(len(v.Vector), bs[n:])
	for _, f := range v.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += ord.String.Marshal(v.Metadata.Path, bs[n:])
	n += varint.Int.Marshal(v.Metadata.ChunkIndex, bs[n:])
	n += varint.Int.Marshal(v.Metadata.StartLine, bs[n:])
	n += varint.Int.Marshal(v.Metadata.EndLine, bs[n:])
	n += ord.String.Marshal(v.Metadata.Language, bs[n:])
	return n + ord.String.Marshal(v.Metadata.Content, bs[n:])
}

func (indexedVectorMUS) Unmarshal(bs []byte) (v IndexedVector, n int, err error) {
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var (
		dim int
		n1  int
	)
	dim, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if dim < 0 {
		err = fmt.Errorf("%w: negative vector length %d", ErrMalformedRecord, dim)
		return
	}
	v.Vector = make([]float32, dim)
	for i := range v.Vector {
		v.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.Metadata.Path, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata.ChunkIndex, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata.StartLine, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata.EndLine, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata.Language, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (indexedVectorMUS) Size(v IndexedVector) (size int) {
	size = ord.String.Size(v.ID)
	size += varint.Int.Size(len(v.Vector))
	for _, f := range v.Vector {
		size += raw.Float32.Size(f)
	}
	size += ord.String.Size(v.Metadata.Path)
	size += varint.Int.Size(v.Metadata.ChunkIndex)
	size += varint.Int.Size(v.Metadata.StartLine)
	size += varint.Int.Size(v.Metadata.EndLine)
	size += ord.String.Size(v.Metadata.Language)
	return size + ord.String.Size(v.Metadata.Content)
}

// CollectionSpecMUS is the MUS serializer for CollectionSpec.
var CollectionSpecMUS = collectionSpecMUS{}

type collectionSpecMUS struct{}

func (collectionSpecMUS) Marshal(v CollectionSpec, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += varint.Int.Marshal(v.Dimension, bs[n:])
	return n + ord.String.Marshal(v.Description, bs[n:])
}

func (collectionSpecMUS) Unmarshal(bs []byte) (v CollectionSpec, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (collectionSpecMUS) Size(v CollectionSpec) (size int) {
	size = ord.String.Size(v.Name)
	size += varint.Int.Size(v.Dimension)
	return size + ord.String.Size(v.Description)
}
