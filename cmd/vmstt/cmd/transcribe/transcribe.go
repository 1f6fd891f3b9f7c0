package transcribe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/poller"
	"voicemail-stt/internal/app/stt"
	"voicemail-stt/internal/app/wazo"
	"voicemail-stt/internal/config"
)

var (
	messageID string
	force     bool
)

func init() {
	Cmd.Flags().StringVarP(&messageID, "messageId", "m", "",
		"voicemail message id to transcribe")
	Cmd.Flags().BoolVarP(&force, "force", "f", false,
		"discard any cached result and transcribe fresh")

	Cmd.MarkFlagRequired("messageId")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe a single voicemail and print the text",
	Long: `Transcribe a single voicemail and print the text.

- Checks the transcription service for an existing result first
- Submits the recording URL otherwise and polls until the job finishes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := config.GetCredentials()
		if err != nil {
			return err
		}

		cfg := config.DefaultOverlay()
		sttClient := stt.NewClient(config.STTServerURL())
		vm := wazo.NewClient(creds.WazoHost, creds.WazoToken)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.PollTimeout()+30*time.Second)
		defer cancel()

		if !force {
			lookup, err := sttClient.Lookup(ctx, creds.WazoUserUUID, messageID)
			if err != nil {
				return err
			}
			if lookup.Found && lookup.Status == "completed" {
				fmt.Println(lookup.Text)
				return nil
			}
		}

		submit, err := sttClient.Submit(ctx, creds.WazoUserUUID, messageID, vm.RecordingURL(messageID), force)
		if err != nil {
			return err
		}

		if submit.Cached && submit.Status == "completed" {
			status, err := sttClient.GetStatus(ctx, submit.JobID)
			if err != nil {
				return err
			}
			fmt.Println(status.Text)
			return nil
		}

		text, err := pollWithProgress(ctx, sttClient, cfg, submit.JobID)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

// pollWithProgress drives the job to a terminal state, rendering one bar
// step per status check.
func pollWithProgress(ctx context.Context, sttClient *stt.Client, cfg config.Overlay, jobID string) (string, error) {
	totalTicks := int64(cfg.PollTimeout()/cfg.PollInterval()) + 1

	progress := mpb.New(mpb.WithOutput(os.Stderr))
	bar := progress.AddBar(totalTicks,
		mpb.PrependDecorators(
			decor.Name("Transcribing ", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)

	job := model.TranscriptionJob{
		JobID:     jobID,
		MessageID: messageID,
		StartTime: time.Now(),
		State:     model.JobQueued,
	}

	var final poller.Update
	p := poller.New(sttClient.GetStatus, cfg.PollInterval(), cfg.PollTimeout())
	p.Run(ctx, job, func(u poller.Update) {
		bar.Increment()
		if u.Done {
			final = u
		}
	})
	bar.SetTotal(bar.Current(), true)
	progress.Wait()

	switch final.State {
	case model.JobCompleted:
		return final.Text, nil
	case model.JobTimedOut:
		return "", fmt.Errorf("transcription timed out after %s", cfg.PollTimeout())
	default:
		return "", fmt.Errorf("transcription failed: %s", final.Message)
	}
}
