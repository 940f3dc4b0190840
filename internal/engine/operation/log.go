package operation

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Record is one line of an operation log.
type Record struct {
	Rev   int64
	Batch string
	Op    Operation
}

// LogWriter writes operations as JSON lines.
type LogWriter struct {
	w io.Writer
}

// NewLogWriter creates a LogWriter writing to w.
func NewLogWriter(w io.Writer) *LogWriter {
	return &LogWriter{w: w}
}

// Write appends one record. The operation's wire form is extended with
// "rev" and, when batch is not empty, "batch".
func (l *LogWriter) Write(rec Record) error {
	data, err := Marshal(rec.Op)
	if err != nil {
		return err
	}
	data, err = sjson.SetBytes(data, "rev", rec.Rev)
	if err != nil {
		return errors.Wrap(err, "stamp rev")
	}
	if rec.Batch != "" {
		data, err = sjson.SetBytes(data, "batch", rec.Batch)
		if err != nil {
			return errors.Wrap(err, "stamp batch")
		}
	}
	data = append(data, '\n')
	if _, err := l.w.Write(data); err != nil {
		return errors.Wrap(err, "write log")
	}
	return nil
}

// ReadLog reads every record from r. Blank lines are skipped. Lines without
// a "rev" get the line number as their revision.
func ReadLog(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		op, err := Unmarshal(raw)
		if err != nil {
			return out, errors.Wrapf(err, "line %d", line)
		}
		res := gjson.ParseBytes(raw)
		rec := Record{Op: op, Rev: int64(line), Batch: res.Get("batch").String()}
		if rev := res.Get("rev"); rev.Exists() {
			rec.Rev = rev.Int()
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return out, errors.Wrap(err, "read log")
	}
	return out, nil
}
