package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tocurd/stm32-isp-sim/protocol"
	"github.com/tocurd/stm32-isp-sim/transport"
)

// Get an expected flag, or exit if an error arises.
func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

func getInt(cmd *cobra.Command, flag string) int {
	r, err := cmd.Flags().GetInt(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// Get a 32-bit address flag, accepting 0x prefixed hex.
func getAddress(cmd *cobra.Command, flag string) uint32 {
	r, err := strconv.ParseUint(getString(cmd, flag), 0, 32)
	if err != nil {
		fmt.Printf("invalid %s: %v\n", flag, err)
		os.Exit(2)
	}

	return uint32(r)
}

// Get a single byte flag, rejecting values above 0xFF.
func getByte(cmd *cobra.Command, flag string) byte {
	r, err := parseByte(getString(cmd, flag))
	if err != nil {
		fmt.Printf("invalid %s: %v\n", flag, err)
		os.Exit(2)
	}

	return r
}

func parseByte(s string) (byte, error) {
	r, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}

	return byte(r), nil
}

func getDialect(cmd *cobra.Command) protocol.Dialect {
	d, err := protocol.ParseDialect(getString(cmd, "dialect"))
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return d
}

func portConfig(cmd *cobra.Command) *transport.Config {
	cfg := transport.DefaultConfig(getString(cmd, "device"))
	cfg.Baud = getInt(cmd, "baud")
	cfg.Parity = getString(cmd, "parity")
	cfg.Driver = getString(cmd, "driver")

	return cfg
}
