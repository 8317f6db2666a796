package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/klarberg/adnest/modules/membership"
	"github.com/pkg/errors"
)

var csvHeader = []string{"Root group", "Member", "Object class", "Membership", "Via group", "Path", "Protected", "DN"}

// WriteCSV emits one row per record in the order given, so callers sort the
// model first if they want the canonical report ordering.
func WriteCSV(w io.Writer, records []membership.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			record.Root,
			record.Member,
			string(record.Class),
			record.Kind.String(),
			record.Via,
			record.PathString(),
			record.Flag,
			record.DN,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func SaveCSV(filename string, records []membership.Record) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "creating report %v", filename)
	}
	defer f.Close()
	return WriteCSV(f, records)
}
