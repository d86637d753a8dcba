package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"karlselfie/internal/infra"
)

var (
	verboseFlag bool
	serverFlag  string
	localeFlag  string

	logger zerolog.Logger
)

// rootCmd is the photo booth CLI.
var rootCmd = &cobra.Command{
	Use:   "booth",
	Short: "Karl selfie photo booth",
	Long: `Booth drives the capture flow against a camera backend and sends the
photo to the render server.

The built-in camera backend is a directory of still images. Files starting
with front/user face the user, back/rear/environment face away.

Examples:
  booth shoot --cameras ./cams --scene 4
  booth shoot --cameras ./cams --prompt "Karl und ich beim Bergsteigen"
  booth scenes --server http://localhost:8080
  booth prompt 7`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		logger = infra.NewCLILogger(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", envOr("BOOTH_SERVER_URL", "http://localhost:8080"), "Render server base URL")
	rootCmd.PersistentFlags().StringVarP(&localeFlag, "locale", "l", envOr("BOOTH_LOCALE", "de"), "Message language (de or en)")

	rootCmd.AddCommand(shootCmd, scenesCmd, promptCmd, keyCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
