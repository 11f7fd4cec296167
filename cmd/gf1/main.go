// gf1 is a command line tool for controlling GF1 signal generators
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/theckman/yacspin"

	"github.com/lab-instruments/gf1ctl/gf1"
)

var (
	serialNumber string

	rootCmd = &cobra.Command{
		Use:   "gf1 <command>",
		Short: "control GF1 signal generators over USB",
		Long: `gf1 controls GF1 USB signal generators: output frequency, amplitude,
waveform shape and run state.  With multiple generators attached, select
one with --serial (see "gf1 list").`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&serialNumber, "serial", "s", "", "serial number of the generator to control")
}

// open connects to the selected generator and configures both SPI
// channels, showing a spinner while USB enumeration settles
func open() *gf1.GF1 {
	spin, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[59],
		Suffix:          " connecting to GF1",
		SuffixAutoColon: true,
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	})
	if err == nil {
		spin.Start()
	}
	g, openErr := gf1.Open(serialNumber)
	if err == nil {
		spin.Stop()
	}
	if openErr != nil {
		log.Fatal(openErr)
	}
	if err := g.SetupChannels(); err != nil {
		g.Close()
		log.Fatal(err)
	}
	return g
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
