package dwarfdb

import (
	"encoding/json"
	"fmt"
)

type TableStats struct {
	Name string
	Rows int

	DataSize  int64
	DataAlloc int64
}

// TableStats reports the size of the named table.
func (tx *Tx) TableStats(name string) (TableStats, error) {
	b := tx.stx.Bucket(name)
	if b == nil {
		return TableStats{}, fmt.Errorf("%s: %w", name, ErrBucketNotFound)
	}
	bs := b.Stats()
	return TableStats{
		Name:      name,
		Rows:      bs.KeyN,
		DataSize:  bs.LeafInuse,
		DataAlloc: bs.TotalAlloc(),
	}, nil
}

// TableNames lists all tables in ascending order.
func (tx *Tx) TableNames() []string {
	return tx.stx.BucketNames()
}

func loggableVal(v any) string {
	if v == nil {
		return "<none>"
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%T: %v>", v, err)
	}
	return string(raw)
}
