package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	rowPrefix        = "row"
	primaryKeyPrefix = "rowpk"
	rowSeq           = "rowseq"
)

// makeTablePrefix returns the prefix shared by every row of table.
// Format: row:table:
func makeTablePrefix(table string) []byte {
	return []byte(rowPrefix + ":" + table + ":")
}

// makeRowKey generates a key for a row by its insertion sequence.
// Format: row:table:seq
func makeRowKey(table string, seq uint64) []byte {
	prefix := makeTablePrefix(table)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so iteration follows insertion order
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makePrimaryKey generates the index key mapping a row id to its row key.
// Format: rowpk:table:id
func makePrimaryKey(table, id string) []byte {
	return []byte(primaryKeyPrefix + ":" + table + ":" + id)
}
