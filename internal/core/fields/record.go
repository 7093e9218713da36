package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Value is a string or a verbatim JSON number.
type Value struct {
	s     string
	num   json.Number
	isNum bool
}

func StringValue(s string) Value { return Value{s: s} }

func NumberValue(n json.Number) Value { return Value{num: n, isNum: true} }

// NotAvailable is the sentinel value of absent fields.
func NotAvailable() Value { return StringValue(constants.NotAvailable) }

func (v Value) IsNumber() bool { return v.isNum }

// Number returns the numeric form when the value is a number.
func (v Value) Number() (json.Number, bool) { return v.num, v.isNum }

// IsNotAvailable reports the "N/A" sentinel.
func (v Value) IsNotAvailable() bool { return !v.isNum && v.s == constants.NotAvailable }

func (v Value) String() string {
	if v.isNum {
		return v.num.String()
	}
	return v.s
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return []byte(v.num.String()), nil
	}
	return json.Marshal(v.s)
}

func valueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return StringValue(x), nil
	case json.Number:
		return NumberValue(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// InvoiceRecord holds every canonical field plus source and processing time.
// It has no mutators.
type InvoiceRecord struct {
	values      map[constants.Field]Value
	source      string
	processedAt time.Time
}

func newRecord(values map[constants.Field]Value, source string, at time.Time) InvoiceRecord {
	r := InvoiceRecord{
		values:      make(map[constants.Field]Value, len(constants.Fields())),
		source:      source,
		processedAt: at,
	}
	for _, f := range constants.Fields() {
		if v, ok := values[f]; ok {
			r.values[f] = v
		} else {
			r.values[f] = NotAvailable()
		}
	}
	return r
}

// NewRecord builds a record from canonical values; missing fields become "N/A"
// and unknown keys are ignored.
func NewRecord(values map[constants.Field]Value, source string, processedAt time.Time) InvoiceRecord {
	return newRecord(values, source, processedAt)
}

func (r InvoiceRecord) Get(f constants.Field) Value {
	if v, ok := r.values[f]; ok {
		return v
	}
	return NotAvailable()
}

func (r InvoiceRecord) Source() string { return r.source }

func (r InvoiceRecord) ProcessedAt() time.Time { return r.processedAt }

// Found counts canonical fields that are not "N/A".
func (r InvoiceRecord) Found() int {
	n := 0
	for _, v := range r.values {
		if !v.IsNotAvailable() {
			n++
		}
	}
	return n
}

// Row renders the record in constants.Columns order.
func (r InvoiceRecord) Row() []string {
	row := make([]string, 0, len(constants.Columns()))
	for _, f := range constants.Fields() {
		row = append(row, r.Get(f).String())
	}
	return append(row, r.source, r.processedAt.Format(constants.ProcessingTimeLayout))
}

// Cells is Row with numbers kept numeric, for spreadsheet writers.
func (r InvoiceRecord) Cells() []any {
	cells := make([]any, 0, len(constants.Columns()))
	for _, f := range constants.Fields() {
		v := r.Get(f)
		if n, ok := v.Number(); ok {
			if fl, err := n.Float64(); err == nil {
				cells = append(cells, fl)
				continue
			}
		}
		cells = append(cells, v.String())
	}
	return append(cells, r.source, r.processedAt.Format(constants.ProcessingTimeLayout))
}

func (r InvoiceRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, val []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	for _, f := range constants.Fields() {
		b, err := r.Get(f).MarshalJSON()
		if err != nil {
			return nil, err
		}
		write(string(f), b)
	}
	src, _ := json.Marshal(r.source)
	write(constants.ColumnSourceFile, src)
	ts, _ := json.Marshal(r.processedAt.UTC().Format(time.RFC3339Nano))
	write(constants.ColumnProcessingTime, ts)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeRecord reverses MarshalJSON.
func DecodeRecord(data []byte) (InvoiceRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return InvoiceRecord{}, fmt.Errorf("decode record: %w", err)
	}
	values := make(map[constants.Field]Value, len(raw))
	for k, v := range raw {
		if !constants.IsCanonical(k) {
			continue
		}
		val, err := valueOf(v)
		if err != nil {
			return InvoiceRecord{}, fmt.Errorf("decode record field %q: %w", k, err)
		}
		values[constants.Field(k)] = val
	}
	source, _ := raw[constants.ColumnSourceFile].(string)
	var at time.Time
	if ts, ok := raw[constants.ColumnProcessingTime].(string); ok && ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return InvoiceRecord{}, fmt.Errorf("decode record time: %w", err)
		}
		at = parsed
	}
	return newRecord(values, source, at), nil
}
