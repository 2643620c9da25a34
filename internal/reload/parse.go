package reload

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/unkn0wn-root/menucache/internal/model"
)

// ReadWorkbook parses the active sheet of the workbook at path.
func ReadWorkbook(path string) ([]model.MenuTree, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return ParseRows(rows)
}

// ParseRows turns sheet rows into a hierarchy. The layout is positional:
//
//	A  B        C            D            E            F
//	1  Menu     description
//	   1        Submenu      description
//	                         Dish         description  price
//
// A row with A and B set starts a menu, a row with only B set starts a
// submenu of the last menu, and a row with both empty is a dish of the last
// submenu. Blank rows are skipped.
func ParseRows(rows [][]string) ([]model.MenuTree, error) {
	var menus []model.MenuTree
	for i, row := range rows {
		line := i + 1
		a, b := cell(row, 0), cell(row, 1)
		switch {
		case a != "" && b != "":
			menus = append(menus, model.MenuTree{Menu: model.Menu{
				Title:       b,
				Description: cell(row, 2),
			}})
		case b != "":
			if len(menus) == 0 {
				return nil, fmt.Errorf("row %d: submenu before any menu", line)
			}
			m := &menus[len(menus)-1]
			m.Submenus = append(m.Submenus, model.SubmenuTree{Submenu: model.Submenu{
				Title:       cell(row, 2),
				Description: cell(row, 3),
			}})
		case blank(row):
			continue
		default:
			if len(menus) == 0 || len(menus[len(menus)-1].Submenus) == 0 {
				return nil, fmt.Errorf("row %d: dish before any submenu", line)
			}
			price, err := model.NormalizePrice(cell(row, 5))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			subs := menus[len(menus)-1].Submenus
			sm := &subs[len(subs)-1]
			sm.Dishes = append(sm.Dishes, model.Dish{
				Title:       cell(row, 3),
				Description: cell(row, 4),
				Price:       price,
			})
		}
	}
	return menus, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for i := range row {
		if cell(row, i) != "" {
			return false
		}
	}
	return true
}
