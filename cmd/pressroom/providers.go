package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pressroomhq/pressroom/llm"
)

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered model providers",
		Run: func(cmd *cobra.Command, args []string) {
			names := llm.ListProviders()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
		},
	}
}
