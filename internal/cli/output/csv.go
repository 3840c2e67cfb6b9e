package output

import (
	"fmt"
	"io"
	"reflect"

	"github.com/gocarina/gocsv"
)

// CSVFormatter formats structs or slices of structs as CSV with a header
// row. Column names come from csv struct tags.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil
		}
		return gocsv.Marshal(data, w)
	case reflect.Struct:
		rows := reflect.MakeSlice(reflect.SliceOf(v.Type()), 0, 1)
		rows = reflect.Append(rows, v)
		return gocsv.Marshal(rows.Interface(), w)
	default:
		return fmt.Errorf("csv output needs a record or a list of records, got %s", v.Kind())
	}
}
