package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/lab-instruments/gf1ctl/gf1"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the serial numbers of attached generators",
	Run:   list,
}

func list(cmd *cobra.Command, args []string) {
	serials, err := gf1.ListDevices()
	if err != nil {
		log.Fatal(err)
	}
	if len(serials) == 0 {
		fmt.Println("no generators found")
		return
	}
	for _, s := range serials {
		fmt.Println(s)
	}
}
