// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package memory

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// recordSerializer encodes a Record with mus-go primitives, fields in
// declaration order. Timestamps are Unix microseconds, 0 for the zero time.
type recordSerializer struct{}

// RecordMUS is the mus serializer for Record.
var RecordMUS = recordSerializer{}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromUnixMicro(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

func (recordSerializer) Size(r Record) (size int) {
	size += varint.Uint64.Size(uint64(r.ID))
	size += ord.String.Size(r.Collection)
	size += ord.String.Size(r.Key)
	size += ord.String.Size(r.Text)
	size += ord.String.Size(r.Description)
	size += varint.Uint64.Size(uint64(len(r.Vector)))
	for _, f := range r.Vector {
		size += raw.Float32.Size(f)
	}
	size += varint.Int64.Size(unixMicro(r.Timestamp))
	return size
}

func (recordSerializer) Marshal(r Record, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(r.ID), bs)
	n += ord.String.Marshal(r.Collection, bs[n:])
	n += ord.String.Marshal(r.Key, bs[n:])
	n += ord.String.Marshal(r.Text, bs[n:])
	n += ord.String.Marshal(r.Description, bs[n:])
	n += varint.Uint64.Marshal(uint64(len(r.Vector)), bs[n:])
	for _, f := range r.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += varint.Int64.Marshal(unixMicro(r.Timestamp), bs[n:])
	return n
}

func (recordSerializer) Unmarshal(bs []byte) (r Record, n int, err error) {
	var (
		id uint64
		m  int
	)
	if id, m, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	r.ID = ID(id)
	n += m

	for _, s := range []*string{&r.Collection, &r.Key, &r.Text, &r.Description} {
		if *s, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
	}

	var length uint64
	if length, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if length > uint64(len(bs)-n)/4 {
		err = fmt.Errorf("%w: vector length %d exceeds data", ErrCorruptRecord, length)
		return
	}
	if length > 0 {
		r.Vector = make([]float32, length)
		for i := range r.Vector {
			if r.Vector[i], m, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += m
		}
	}

	var ts int64
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	r.Timestamp = fromUnixMicro(ts)
	n += m
	return
}

// MarshalRecord serializes a Record to bytes.
func MarshalRecord(record *Record) []byte {
	buf := make([]byte, RecordMUS.Size(*record))
	RecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (*Record, error) {
	record, _, err := RecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return &record, nil
}
