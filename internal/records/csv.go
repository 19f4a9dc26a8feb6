package records

import (
	"fmt"
	"strings"

	"github.com/sheetscan/sheetscan/internal/domain"
)

// scanTimeFormat is the human-readable timestamp appended to every exported
// row.
const scanTimeFormat = "2006-01-02 15:04:05"

// ExportCSV renders records of one variant as CSV: a header row followed by
// one row per record in the given order. Columns are the variant's fixed
// column set with the scan timestamp appended, prefixed by a linked-group
// column when any exported record carries a group id. Every field is
// double-quote-escaped with internal quotes doubled.
func ExportCSV(records []domain.Record, variant domain.SheetVariant) (string, error) {
	header, err := domain.NewFieldSet(variant)
	if err != nil {
		return "", err
	}

	withGroups := false
	for _, record := range records {
		if record.Variant != variant {
			return "", domain.ValidationError(fmt.Sprintf(
				"cannot export %s record in a %s sheet", record.Variant, variant), nil)
		}
		if record.GroupID != "" {
			withGroups = true
		}
	}

	var sb strings.Builder

	columns := header.Columns()
	if withGroups {
		writeRow(&sb, append([]string{"Linked Group ID"}, append(columns, "Scanned At")...))
	} else {
		writeRow(&sb, append(columns, "Scanned At"))
	}

	for _, record := range records {
		row := record.Fields.Row()
		row = append(row, record.CreatedAt.Format(scanTimeFormat))
		if withGroups {
			row = append([]string{record.GroupID}, row...)
		}
		writeRow(&sb, row)
	}

	return sb.String(), nil
}

func writeRow(sb *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(escapeField(field))
	}
	sb.WriteString("\r\n")
}

// escapeField wraps a value in double quotes, doubling any internal quotes.
// Quoting unconditionally keeps the output shape independent of the value.
func escapeField(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
