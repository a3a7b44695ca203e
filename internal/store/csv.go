package store

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/openradar/TINT/tint"
)

// csvHeader names the exported columns in order.
var csvHeader = []string{
	"scan", "uid", "time", "grid_x", "grid_y", "lon", "lat",
	"area", "vol", "max", "max_alt", "isolated", "origin", "obs_num",
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []tint.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	record := make([]string, len(csvHeader))
	for _, row := range rows {
		record[0] = strconv.Itoa(row.Scan)
		record[1] = strconv.Itoa(row.UID)
		record[2] = row.Time.UTC().Format(time.DateTime)
		record[3] = formatFloat(row.GridX)
		record[4] = formatFloat(row.GridY)
		record[5] = formatFloat(row.Lon)
		record[6] = formatFloat(row.Lat)
		record[7] = formatFloat(row.Area)
		record[8] = formatFloat(row.Volume)
		record[9] = formatFloat(row.Max)
		record[10] = formatFloat(row.MaxAlt)
		record[11] = strconv.FormatBool(row.Isolated)
		record[12] = strconv.Itoa(row.Origin)
		record[13] = strconv.Itoa(row.Observations)
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "write csv row scan %d uid %d", row.Scan, row.UID)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flush csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
