package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the identity of a generator",
	Run:   info,
}

func info(cmd *cobra.Command, args []string) {
	g := open()
	defer g.Close()
	man, err := g.ManufacturerDesc()
	if err != nil {
		log.Fatal(err)
	}
	prod, err := g.ProductDesc()
	if err != nil {
		log.Fatal(err)
	}
	sn, err := g.SerialDesc()
	if err != nil {
		log.Fatal(err)
	}
	rev, err := g.HardwareRevision()
	if err != nil {
		log.Fatal(err)
	}
	sv, err := g.SiliconVersion()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("manufacturer: %s\n", man)
	fmt.Printf("product:      %s\n", prod)
	fmt.Printf("serial:       %s\n", sn)
	fmt.Printf("revision:     %s\n", rev)
	fmt.Printf("bridge:       CP2130 silicon %d.%d\n", sv.Major, sv.Minor)
}
