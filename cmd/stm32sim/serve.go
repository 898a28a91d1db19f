package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tocurd/stm32-isp-sim/emulator"
	"github.com/tocurd/stm32-isp-sim/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve [flags]",
	Short: "Run the bootloader emulator on a serial port.",
	Long: `Run the bootloader emulator on a serial port.
	The emulator answers the init byte (0x7F), GET, WRITE MEMORY, mass ERASE
	and the simulator RESET command (0x03 0xFC). Sessions are repeated until
	the port is closed or a framing error occurs.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := portConfig(cmd)
		opts := []emulator.Option{
			emulator.WithFlashSize(getInt(cmd, "flash-size")),
			emulator.WithBaseAddress(getAddress(cmd, "base")),
			emulator.WithVersion(getByte(cmd, "bl-version")),
			emulator.WithDialect(getDialect(cmd)),
			emulator.WithDoubleNack(getFlag(cmd, "double-nack")),
			emulator.WithLogger(log.WithField("device", cfg.Device)),
		}
		if err := serve(cfg, getString(cmd, "dump"), opts); err != nil {
			log.Error(err)
			os.Exit(1)
		}
	},
}

/*
 * @Description: 打开串口运行模拟器, 收到 SIGINT/SIGTERM 时关闭串口退出
 * @param cfg 串口配置
 * @param dump 每次会话结束后写入 Flash 镜像的文件, 为空时不写
 * @param opts 模拟器配置
 * @return error
 */
func serve(cfg *transport.Config, dump string, opts []emulator.Option) error {
	port, err := transport.Open(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	var emu *emulator.Emulator
	if dump != "" {
		opts = append(opts, emulator.WithSessionHook(func(ev emulator.SessionEvent) {
			if err := dumpImage(emu, dump); err != nil {
				log.Warn(err)
			}
		}))
	}
	emu = emulator.New(port, opts...)
	log.WithFields(log.Fields{"flash": emu.Flash().Size(), "driver": cfg.Driver}).Info("bootloader emulator ready")

	err = emu.Serve()
	stats := emu.Stats()
	log.WithFields(log.Fields{
		"sessions": stats.Sessions,
		"writes":   stats.Writes,
		"bytes":    stats.BytesWritten,
		"erases":   stats.Erases,
		"nacks":    stats.Nacks,
	}).Info("emulator stopped")
	if ctx.Err() != nil {
		return nil
	}
	port.Close()
	return err
}

func dumpImage(emu *emulator.Emulator, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create dump file")
	}
	defer f.Close()
	_, err = emu.Flash().WriteTo(f)
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("flash-size", 62000, "flash size in bytes")
	serveCmd.Flags().String("base", "0x08000000", "flash base address")
	serveCmd.Flags().String("bl-version", "0x20", "bootloader version byte")
	serveCmd.Flags().Bool("double-nack", false, "send NACK twice on payload checksum error")
	serveCmd.Flags().String("dump", "", "write the flash image to this file after each session")
}
