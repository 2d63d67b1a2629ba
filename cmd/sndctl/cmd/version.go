package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/sndctl/internal/upgrade"
	"github.com/pandeptwidyaop/sndctl/internal/version"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.String())
		if !versionCheck {
			return nil
		}

		release, err := upgrade.CheckLatestVersion(cmd.Context(), upgrade.LatestReleaseURL)
		if err != nil {
			printError("check for updates", err)
			return err
		}
		if upgrade.NeedsUpgrade(release.TagName) {
			fmt.Printf("Update available: %s (%s)\n", release.TagName, release.HTMLURL)
		} else {
			fmt.Println("You are running the latest version.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}
