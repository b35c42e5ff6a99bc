package main

import (
	"fmt"
	"net"
	"time"

	"github.com/rvald/chatgui/internal/discovery"
	"github.com/spf13/cobra"
)

var browseTimeout time.Duration

var debugDiscoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "List interfaces and browse for chat servers over mDNS",
	RunE: func(cmd *cobra.Command, args []string) error {
		ifaces, err := net.Interfaces()
		if err != nil {
			return err
		}
		fmt.Println("Network Interfaces:")
		for _, iface := range ifaces {
			addrs, _ := iface.Addrs()
			fmt.Printf("- %s (Flags: %v)\n", iface.Name, iface.Flags)
			for _, addr := range addrs {
				fmt.Printf("  - %s\n", addr.String())
			}
		}
		fmt.Println()

		fmt.Printf("Browsing %s for %s...\n", discovery.ServiceType, browseTimeout)
		entries, err := discovery.Browse(cmd.Context(), browseTimeout)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No chat servers found.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("- %s  %s:%d  (%s)\n", e.DisplayName, e.Addr, e.Port, e.Host)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugDiscoveryCmd)
	debugDiscoveryCmd.Flags().DurationVar(&browseTimeout, "timeout", 3*time.Second, "How long to listen for answers")
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug utilities",
}
