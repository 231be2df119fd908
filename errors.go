package dwarfdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEntityNotFound is returned when a read addresses an entity id that
	// has no stored record.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidKey is returned when a key is outside the namespace or format
	// the operation accepts.
	ErrInvalidKey = errors.New("invalid key")

	// ErrNotEntity is returned for values that cannot act as entities.
	ErrNotEntity = errors.New("not an entity")

	// ErrUnknownType is returned by Codec for unregistered entity types.
	ErrUnknownType = errors.New("unknown entity type")

	ErrTxNotWritable = errors.New("tx not writable")
	ErrClosed        = errors.New("database closed")
)

type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		}
		return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
	}
	p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
	if e.Err != nil {
		return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
	}
	return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
}

// KeyError reports a failure tied to a particular key of a table. Key holds
// the caller-facing form of the key (a binding name, an entity id) when one
// is known, and the raw bytes otherwise.
type KeyError struct {
	Table string
	Key   any
	Msg   string
	Err   error
}

func keyErrf(table string, key any, err error, format string, args ...any) error {
	return &KeyError{table, key, fmt.Sprintf(format, args...), err}
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func (e *KeyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table)
	if e.Key != nil {
		buf.WriteByte('/')
		switch k := e.Key.(type) {
		case []byte:
			buf.WriteString(hexstr(k))
		case string:
			fmt.Fprintf(&buf, "%q", k)
		default:
			fmt.Fprint(&buf, k)
		}
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// rekeyErr attaches the caller-facing key to err. A KeyError already raised
// for the same table is rebuilt with the new key rather than nested.
func rekeyErr(table string, key any, err error) error {
	var ke *KeyError
	if errors.As(err, &ke) && ke.Table == table {
		return &KeyError{table, key, ke.Msg, ke.Err}
	}
	return &KeyError{Table: table, Key: key, Err: err}
}
