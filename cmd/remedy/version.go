package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/remedy/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the remedy version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
