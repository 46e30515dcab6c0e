// Package export writes contacts to spreadsheet files.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/maloquacious/contacts/internal/store"
)

const SheetName = "Contacts"

var header = []any{"ID", "Name", "Phone Number", "Email", "Address"}

// XLSX writes contacts, in the given order, to a workbook at path.
func XLSX(path string, contacts []store.Contact) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, c := range contacts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{c.ID, c.Name, c.PhoneNumber, c.Email, c.Address}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write contact %d: %w", c.ID, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "E", 24); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
