package main

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is filled when building with make.
var Version string

var rootCmd = &cobra.Command{
	Use:   "stm32sim",
	Short: "STM32 USART bootloader emulator.",
	Long: `Emulates the STM32 ROM USART bootloader (AN3155) on a serial port so
that host flashing tools can be exercised without hardware.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(getFlag(cmd, "verbose"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "version") {
			fmt.Print("stm32sim ")
			if Version != "" {
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				fmt.Printf("%s", info.Main.Version)
			} else {
				fmt.Printf("(unknown version)")
			}
			fmt.Println()
			return
		}
		fmt.Println(cmd.UsageString())
	},
}

// Execute is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// 终端上彩色文本, 重定向时输出 JSON
func setupLogging(verbose bool) {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "Report version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().StringP("device", "d", "/dev/ttyUSB0", "serial device")
	rootCmd.PersistentFlags().IntP("baud", "b", 115200, "baud rate")
	rootCmd.PersistentFlags().String("parity", "E", "parity (N, E, O)")
	rootCmd.PersistentFlags().String("driver", "bugst", "serial driver (bugst, tarm)")
	rootCmd.PersistentFlags().String("dialect", "simulator", "frame dialect (simulator, an3155, flasher)")
}
