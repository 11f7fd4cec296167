package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lab-instruments/gf1ctl/gf1"
)

func init() {
	rootCmd.AddCommand(frequencyCmd)
	rootCmd.AddCommand(amplitudeCmd)
	rootCmd.AddCommand(waveformCmd)
}

var frequencyCmd = &cobra.Command{
	Use:   "frequency <kHz>",
	Short: "Set the output frequency in kHz",
	Long: `Set the output frequency in kHz, range 0 to 25000.  The commanded value
is quantized onto the generator's 24-bit register scale; the realized
frequency is printed.`,
	Args: cobra.ExactArgs(1),
	Run:  setFrequency,
}

func setFrequency(cmd *cobra.Command, args []string) {
	khz, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		log.Fatalf("%s is not a number: %v", args[0], err)
	}
	g := open()
	defer g.Close()
	if err := g.SetFrequency(khz); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("frequency set, realized value %g kHz\n", gf1.ExpectedFrequency(khz))
}

var amplitudeCmd = &cobra.Command{
	Use:   "amplitude <Vpp>",
	Short: "Set the output amplitude in volts peak-to-peak",
	Long: `Set the output amplitude in Vpp, range 0 to 5.  The commanded value is
quantized onto the potentiometer's 8-bit scale; the realized amplitude
is printed.`,
	Args: cobra.ExactArgs(1),
	Run:  setAmplitude,
}

func setAmplitude(cmd *cobra.Command, args []string) {
	vpp, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		log.Fatalf("%s is not a number: %v", args[0], err)
	}
	g := open()
	defer g.Close()
	if err := g.SetAmplitude(vpp); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("amplitude set, realized value %g Vpp\n", gf1.ExpectedAmplitude(vpp))
}

var waveformCmd = &cobra.Command{
	Use:       "waveform <sine|triangle>",
	Short:     "Select the output waveform shape",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"sine", "triangle"},
	Run:       setWaveform,
}

func setWaveform(cmd *cobra.Command, args []string) {
	g := open()
	defer g.Close()
	var err error
	switch args[0] {
	case "sine":
		err = g.SetSineWave()
	case "triangle":
		err = g.SetTriangleWave()
	default:
		log.Fatalf("unknown waveform %q, must be sine or triangle", args[0])
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("waveform set to", args[0])
}
