package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"voicemail-stt/cmd/vmstt/cmd/export"
	"voicemail-stt/cmd/vmstt/cmd/serve"
	"voicemail-stt/cmd/vmstt/cmd/transcribe"
	"voicemail-stt/cmd/vmstt/cmd/version"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmstt",
	Short: "Voicemail speech-to-text overlay core",
	Long: `Voicemail speech-to-text overlay core.
- Run the bridge daemon the UI-wiring layer talks to (serve)
- Transcribe a single voicemail from the command line (transcribe)
- Export completed transcriptions to a spreadsheet (export)`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
