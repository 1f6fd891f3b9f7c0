package export

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx"

	"voicemail-stt/internal/app"
)

var outputFilePath string

func init() {
	Cmd.Flags().StringVarP(&outputFilePath, "output", "o", "transcriptions.xlsx",
		"output xlsx file path")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export completed transcriptions from the store to xlsx",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := app.ProvideLogger()
		store, err := app.ProvideStore(logger)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Load()
		if err != nil {
			return err
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Transcriptions")
		if err != nil {
			return err
		}

		headerRow := sheet.AddRow()
		headerRow.AddCell().Value = "Message ID"
		headerRow.AddCell().Value = "Status"
		headerRow.AddCell().Value = "Transcription"

		for _, res := range entries {
			row := sheet.AddRow()
			row.AddCell().Value = res.MessageID
			row.AddCell().Value = string(res.Status)
			row.AddCell().Value = res.Text
		}

		if err := file.Save(outputFilePath); err != nil {
			return err
		}
		fmt.Printf("exported %d transcriptions to %s\n", len(entries), outputFilePath)
		return nil
	},
}
