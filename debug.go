package dwarfdb

import (
	"fmt"
	"io"
	"strings"
)

type DumpFlags uint64

const (
	DumpTableHeaders = DumpFlags(1 << iota)
	DumpStats
	DumpBindings
	DumpEntities
	DumpEntityData

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump writes a human-readable listing of the bindings and entity tables.
func (tx *Tx) Dump(w io.Writer, f DumpFlags) error {
	if err := tx.dumpTable(w, f, BindingsTable, DumpBindings, tx.dumpBinding); err != nil {
		return err
	}
	return tx.dumpTable(w, f, EntitiesTable, DumpEntities, tx.dumpEntity)
}

func (tx *Tx) dumpTable(w io.Writer, f DumpFlags, name string, rowsFlag DumpFlags, dumpRow func(w io.Writer, f DumpFlags, k, v []byte)) error {
	s, err := tx.TableStats(name)
	if err != nil {
		return err
	}
	if f.Contains(DumpTableHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s (%d rows)\n", name, s.Rows)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: data_size = %d, data_alloc = %d\n", name, s.DataSize, s.DataAlloc)
	}
	if f.Contains(rowsFlag) {
		if f.Contains(DumpStats) {
			fmt.Fprintln(w, dumpSep2)
		}
		t := tx.fixedTable(name)
		for k, v := range t.Scan(RawOO()) {
			dumpRow(w, f, k, v)
		}
	}
	return nil
}

func (tx *Tx) dumpBinding(w io.Writer, f DumpFlags, k, v []byte) {
	id, err := DecodeID(v)
	if err != nil {
		fmt.Fprintf(w, "%s.%q => ** ERROR: %v\n", BindingsTable, k, err)
		return
	}
	fmt.Fprintf(w, "%s.%q => %v\n", BindingsTable, k, id)
}

func (tx *Tx) dumpEntity(w io.Writer, f DumpFlags, k, v []byte) {
	id, err := DecodeID(k)
	if err != nil {
		fmt.Fprintf(w, "%s.%s = ** ERROR: %v\n", EntitiesTable, hexstr(k), err)
		return
	}
	typ, val, err := DecodeGeneric(v)
	if err != nil {
		fmt.Fprintf(w, "%s.%v = (%d bytes) ** ERROR: %v\n", EntitiesTable, id, len(v), err)
		return
	}
	if f.Contains(DumpEntityData) {
		fmt.Fprintf(w, "%s.%v = %s (%d bytes) %s\n", EntitiesTable, id, typ, len(v), loggableVal(val))
	} else {
		fmt.Fprintf(w, "%s.%v = %s (%d bytes)\n", EntitiesTable, id, typ, len(v))
	}
}
