package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resume-analyzer/config"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          config.App,
		Short:        "resume-analyzer rates PDF resumes against a job description",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.Init(viper.GetViper(), cfgFile)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-analyzer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}
