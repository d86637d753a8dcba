package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"karlselfie/internal/booth"
	"karlselfie/internal/domain"
	"karlselfie/internal/imagegen"
	"karlselfie/internal/infra/credentials"
	"karlselfie/internal/scenes"
)

var (
	scenesFileFlag string
	localFlag      bool
	textFlag       string
	providerFlag   string
	keyFileFlag    string
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List the scene catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		var list []domain.Scene
		if localFlag || scenesFileFlag != "" {
			list = scenes.Open(scenesFileFlag, logger).List()
		} else {
			var err error
			list, err = booth.NewClient(serverFlag, nil).Scenes(cmd.Context())
			if err != nil {
				return err
			}
		}
		for _, s := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s %s\n", s.ID, s.Emoji, s.ShortTitle)
		}
		return nil
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt [scene-id|random]",
	Short: "Print the full generation prompt for a scene",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := textFlag
		if strings.TrimSpace(description) == "" {
			selector := scenes.RandomSelector
			if len(args) == 1 {
				selector = args[0]
			}
			scene, err := scenes.Open(scenesFileFlag, logger).Lookup(selector)
			if err != nil {
				return err
			}
			description = scene.FullPrompt
		}
		full, err := imagegen.BuildInstruction(description)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), full)
		return nil
	},
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Show which API key the render server would use",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := credentials.NewStore(credentials.Options{Provider: providerFlag, KeyFile: keyFileFlag})
		key, source, err := store.Resolve(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (from %s)\n", credentials.Mask(key), source)
		return nil
	},
}

func init() {
	scenesCmd.Flags().BoolVar(&localFlag, "local", false, "Use the built-in catalog instead of asking the server")
	scenesCmd.Flags().StringVar(&scenesFileFlag, "file", "", "Numbered prompts file overriding the built-in catalog")

	promptCmd.Flags().StringVar(&scenesFileFlag, "file", "", "Numbered prompts file overriding the built-in catalog")
	promptCmd.Flags().StringVarP(&textFlag, "text", "t", "", "Own scene description instead of a catalog scene")

	keyCmd.Flags().StringVar(&providerFlag, "provider", envOr("IMAGE_PROVIDER", credentials.ProviderOpenAI), "Image provider (openai or gemini)")
	keyCmd.Flags().StringVar(&keyFileFlag, "key-file", envOr("KEY_FILE", "key.txt"), "Key file consulted when the environment variable is unset")
}
