package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(resetCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start signal output",
	Run: func(cmd *cobra.Command, args []string) {
		g := open()
		defer g.Close()
		if err := g.Start(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("output running")
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Halt signal output",
	Run: func(cmd *cobra.Command, args []string) {
		g := open()
		defer g.Close()
		if err := g.Stop(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("output halted")
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Return the generator to its power-up state",
	Long:  `Zero the start frequency and amplitude and select sine output, in one call.`,
	Run: func(cmd *cobra.Command, args []string) {
		g := open()
		defer g.Close()
		if err := g.Clear(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("generator cleared")
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the USB bridge, re-enumerating the device",
	Run: func(cmd *cobra.Command, args []string) {
		g := open()
		defer g.Close()
		if err := g.Reset(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("device reset, it will re-enumerate shortly")
	},
}
