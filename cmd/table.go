package cmd

import (
	"bytes"

	"github.com/ecfan/ecfan/cmd/global"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/tomlazar/table"
)

func printTable(headers []string, rows [][]string) {
	tab := table.Table{
		Headers: headers,
		Rows:    rows,
	}
	var buf bytes.Buffer
	tableErr := tab.WriteTable(&buf, &table.Config{
		ShowIndex:       false,
		Color:           !global.NoColor,
		AlternateColors: true,
		TitleColorCode:  ansi.ColorCode("white+buf"),
		AltColorCodes: []string{
			ansi.ColorCode("white"),
			ansi.ColorCode("white:236"),
		},
	})
	if tableErr != nil {
		ui.Fatal("Error printing table: %v", tableErr)
	}
	ui.Printfln(buf.String())
}
