package main

import (
	"runtime/debug"
	"strings"

	"github.com/specslim/specslim/cmd/specslim/commands/cmdutil"
	slimCmd "github.com/specslim/specslim/cmd/specslim/commands/slim"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// getVersionInfo returns version information, prioritizing ldflags values over build info
func getVersionInfo() (string, string, string) {
	if version != "dev" || commit != "none" || date != "unknown" {
		return version, commit, date
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit, date
	}

	moduleVersion := version
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		moduleVersion = buildInfo.Main.Version
	}

	vcsCommit := commit
	vcsTime := date

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 7 {
				vcsCommit = setting.Value[:7]
			} else {
				vcsCommit = setting.Value
			}
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	return moduleVersion, vcsCommit, vcsTime
}

var rootCmd = &cobra.Command{
	Use:   "specslim",
	Short: "Shorten large OpenAPI documents to the operations you need",
	Long: `Tools for cutting large OpenAPI 3.x documents down to size.

- shorten: keep the selected paths and methods plus the components they reference
- batch:   run many shortening profiles at once, sharing parsed sources
- resolve: break circular schema references and report what was cut
- graph:   inspect schema reference cycles without changing anything

Settings are read from .specslim.yaml in the working directory, SPECSLIM_*
environment variables (a .env file is loaded first) and flags, flags winning.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	currentVersion, currentCommit, currentDate := getVersionInfo()

	rootCmd.Version = currentVersion

	var versionTemplate strings.Builder
	versionTemplate.WriteString(`{{printf "%s" .Version}}`)

	if currentCommit != "none" && currentCommit != "" {
		versionTemplate.WriteString("\nBuild: " + currentCommit)
	}

	if currentDate != "unknown" && currentDate != "" {
		versionTemplate.WriteString("\nBuilt: " + currentDate)
	}

	rootCmd.SetVersionTemplate(versionTemplate.String())

	slimCmd.Apply(rootCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only print errors")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		cmdutil.Die(err)
	}
}
