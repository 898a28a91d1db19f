package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	isp "github.com/tocurd/stm32-isp-sim"
	"github.com/tocurd/stm32-isp-sim/protocol"
	"github.com/tocurd/stm32-isp-sim/transport"
)

var flashCmd = &cobra.Command{
	Use:   "flash [flags] firmware_file",
	Short: "Write a .bin or .hex file through the bootloader.",
	Long: `Write a .bin or .hex file through the bootloader.
	Works against real chips and against "stm32sim serve".`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			log.Error(cmd.UsageString())
			os.Exit(1)
		}
		cfg := portConfig(cmd)
		cfg.ReadTimeout = 500 * time.Millisecond
		opts := flashOptions{
			addr:     getAddress(cmd, "addr"),
			activate: getFlag(cmd, "activate"),
			erase:    getFlag(cmd, "erase"),
			reset:    getFlag(cmd, "reset-session"),
		}
		if err := flashFile(cfg, getDialect(cmd), args[0], opts); err != nil {
			log.Error(err)
			os.Exit(1)
		}
	},
}

type flashOptions struct {
	addr     uint32
	activate bool
	erase    bool
	reset    bool
}

func flashFile(cfg *transport.Config, dialect protocol.Dialect, path string, opts flashOptions) error {
	port, err := transport.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	t := &isp.ISP{Port: port, Dialect: dialect}
	if opts.activate {
		log.Info("进入ISP模式")
		if err = t.Activation(); err != nil {
			return err
		}
	}
	log.Info("开始波特率对码")
	if err = t.RightCode(); err != nil {
		return err
	}
	if err = t.GetCommand(); err != nil {
		return err
	}
	log.Infof("bootloader v%d.%d, commands % 02X", t.Version>>4, t.Version&0x0F, t.Supported)

	if opts.erase {
		log.Info("准备擦除芯片")
		if err = t.EraseMemoryAll(); err != nil {
			return err
		}
	}
	err = t.WriteFile(opts.addr, path, func(progress float64) {
		log.Debugf("progress:%.2f%%", progress)
	})
	if err != nil {
		return err
	}
	if opts.reset {
		if err = t.ResetSession(); err != nil {
			return err
		}
	}
	log.Info("任务完成")
	return nil
}

func init() {
	rootCmd.AddCommand(flashCmd)
	flashCmd.Flags().String("addr", "0x08000000", "load address for .bin files")
	flashCmd.Flags().Bool("activate", false, "toggle DTR/RTS to enter the bootloader first")
	flashCmd.Flags().Bool("erase", true, "mass erase before writing")
	flashCmd.Flags().Bool("reset-session", true, "send the simulator reset command when done")
}
