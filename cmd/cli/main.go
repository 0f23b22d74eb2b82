package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverAddr string
	grpcAddr   string
	timeout    int
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "segnodectl",
		Short: "segnodectl - segnode operator CLI",
		Long:  `segnodectl inspects a running segnode: resolved capability, identity, cached segments, and health`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8083", "Node HTTP address")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "grpc", "localhost:9095", "Node gRPC address")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 30, "Request timeout in seconds")

	// Add subcommands
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(segmentsCmd())
	rootCmd.AddCommand(membersCmd())
	rootCmd.AddCommand(healthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
