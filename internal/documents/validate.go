package documents

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-console/internal/validation"
)

// Validate checks p before submission. Problems are keyed by JSON path,
// e.g. "header.dueDate" or "lines[1].quantity".
func Validate(p Payload) error {
	errs := validation.Errors{}
	if err := errs.Merge(validation.Struct(p)); err != nil {
		return err
	}
	for i, line := range p.Lines {
		prefix := fmt.Sprintf("lines[%d].", i)
		if strings.TrimSpace(line.ProductCode) == "" {
			errs.Add(prefix+"productCode", "is required")
		}
		validation.Decimal(errs, prefix+"quantity", line.Quantity, true)
		validation.Decimal(errs, prefix+"price", line.Price, true)
	}
	validation.DateOrder(errs, "header.documentDate", p.Header.DocumentDate, "header.dueDate", p.Header.DueDate)
	return errs.Err()
}
