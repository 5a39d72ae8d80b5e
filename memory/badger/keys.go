package badger

import (
	"encoding/binary"

	"github.com/poiesic/semkit/memory"
)

// Key prefixes for different data types
const (
	recordPrefix     = "memrec:"
	collectionPrefix = "memcol:"
)

// A record key is prefix, collection, a zero byte and the big-endian ID.
// Collection names never contain a zero byte so the prefix scan of one
// collection cannot match another.
func makeRecordKey(collection string, id memory.ID) []byte {
	prefix := makeRecordPrefix(collection)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRecordPrefix returns the prefix shared by every record of collection.
func makeRecordPrefix(collection string) []byte {
	buf := make([]byte, 0, len(recordPrefix)+len(collection)+1)
	buf = append(buf, recordPrefix...)
	buf = append(buf, collection...)
	return append(buf, 0)
}

// makeCollectionKey generates the marker key for a collection.
func makeCollectionKey(collection string) []byte {
	return []byte(collectionPrefix + collection)
}
