package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"karlselfie/internal/booth"
	"karlselfie/internal/camera"
	"karlselfie/internal/hints"
	"karlselfie/internal/storage"
)

var (
	camerasFlag string
	facingFlag  string
	sceneFlag   string
	promptFlag  string
	outFlag     string
	switchFlag  bool
	timeoutFlag time.Duration
)

var shootCmd = &cobra.Command{
	Use:   "shoot",
	Short: "Take a selfie, pick a scene and save the render",
	Long: `Shoot runs the whole booth flow once: camera permission, live preview,
capture, scene selection, render and download.

Without --scene or --prompt the scene is asked for interactively.`,
	RunE: runShoot,
}

func init() {
	shootCmd.Flags().StringVarP(&camerasFlag, "cameras", "c", "cameras", "Directory of still images acting as camera devices")
	shootCmd.Flags().StringVarP(&facingFlag, "facing", "f", "front", "Camera to start with (front or back)")
	shootCmd.Flags().StringVar(&sceneFlag, "scene", "", `Scene id or "random"`)
	shootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Own scene description, wins over --scene")
	shootCmd.Flags().StringVarP(&outFlag, "out", "o", ".", "Directory for the downloaded render")
	shootCmd.Flags().BoolVar(&switchFlag, "switch", false, "Switch to the other camera before capturing")
	shootCmd.Flags().DurationVar(&timeoutFlag, "timeout", 3*time.Minute, "Overall time limit")
}

func runShoot(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	facing, err := camera.ParseFacing(facingFlag)
	if err != nil {
		return err
	}
	locale := hints.MatchLocale(localeFlag)
	if locale == "" {
		locale = hints.LocaleDE
	}

	devices, err := camera.NewStillDevices(camerasFlag)
	if err != nil {
		return err
	}
	files, err := storage.NewFileStore(outFlag)
	if err != nil {
		return err
	}
	ctrl := camera.NewController(devices, camera.Options{Logger: logger})
	surface := &camera.StillSurface{}
	client := booth.NewClient(serverFlag, nil)

	flow := booth.NewFlow(booth.Options{
		Camera:    ctrl,
		Surface:   surface.Lookup(),
		Submitter: client,
		Results:   files,
		Locale:    locale,
		Facing:    facing,
		Logger:    logger,
	})
	defer flow.Close()

	out := cmd.OutOrStdout()
	if err := flow.Open(ctx); err != nil {
		return report(out, flow, err)
	}
	if flow.State() == booth.StatePermission {
		fmt.Fprintln(out, "Requesting camera access...")
		if err := flow.Grant(ctx); err != nil {
			return report(out, flow, err)
		}
	}
	if switchFlag {
		if !flow.View().CanSwitch {
			logger.Warn().Msg("only one camera available, not switching")
		} else if err := flow.SwitchDevice(ctx); err != nil {
			return report(out, flow, err)
		}
	}

	if err := flow.Capture(ctx); err != nil {
		return report(out, flow, err)
	}
	fmt.Fprintf(out, "Captured with the %s camera.\n", flow.View().Facing)

	if err := chooseScene(ctx, cmd.InOrStdin(), out, flow, client); err != nil {
		return err
	}

	fmt.Fprintln(out, "Rendering, this can take up to a minute...")
	if err := flow.Submit(ctx); err != nil {
		return report(out, flow, err)
	}
	res := flow.View().Result
	fmt.Fprintf(out, "Scene: %s\n", res.PromptUsed)

	path, err := flow.Download(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}

// chooseScene applies --prompt/--scene or asks on in until a non-blank
// answer arrives. End of input leaves the selection empty so that Submit
// reports the validation message.
func chooseScene(ctx context.Context, in io.Reader, out io.Writer, flow *booth.Flow, client *booth.Client) error {
	if strings.TrimSpace(promptFlag) != "" {
		return flow.SetPrompt(promptFlag)
	}
	if strings.TrimSpace(sceneFlag) != "" {
		return flow.SelectScene(sceneFlag)
	}

	list, err := client.Scenes(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not fetch scenes, only own descriptions and random are available")
	}
	for _, s := range list {
		fmt.Fprintf(out, "%3d  %s %s\n", s.ID, s.Emoji, s.ShortTitle)
	}

	answer, err := readSelection(bufio.NewReader(in), out)
	if err != nil {
		return err
	}
	if answer == "" || isSelector(answer) {
		return flow.SelectScene(answer)
	}
	return flow.SetPrompt(answer)
}

// readSelection prompts until a non-blank line is read. It returns "" on
// end of input.
func readSelection(in *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprintln(out, `Enter a scene id, "random" or your own description:`)
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
		if errors.Is(err, io.EOF) {
			return "", nil
		}
	}
}

func isSelector(s string) bool {
	if strings.EqualFold(s, "random") {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// report prints the flow's error or validation message and returns err.
func report(out io.Writer, flow *booth.Flow, err error) error {
	v := flow.View()
	switch {
	case v.Validation != "":
		fmt.Fprintln(out, v.Validation)
	case v.Error != "":
		fmt.Fprintln(out, v.Error)
	}
	logger.Debug().Err(err).Str("state", string(v.State)).Msg("booth stopped")
	return err
}
