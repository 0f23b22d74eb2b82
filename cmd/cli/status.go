package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func getJSON(path string, out interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverAddr+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the node's resolved capability and identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Capability struct {
					Role         string `json:"role"`
					Discoverable bool   `json:"discoverable"`
					MaxSize      int64  `json:"max_size"`
				} `json:"capability"`
				Identity struct {
					ID   string `json:"id"`
					Name string `json:"name"`
					Host string `json:"host"`
					Port int    `json:"port"`
					Role string `json:"role"`
				} `json:"identity"`
			}
			if err := getJSON("/status", &resp); err != nil {
				return err
			}

			fmt.Printf("Role: %s\n", resp.Capability.Role)
			fmt.Printf("Discoverable: %t\n", resp.Capability.Discoverable)
			fmt.Printf("Max Size: %d bytes\n", resp.Capability.MaxSize)
			fmt.Printf("Identity: %s (%s:%d)\n", resp.Identity.ID, resp.Identity.Host, resp.Identity.Port)
			fmt.Printf("Service: %s\n", resp.Identity.Name)
			return nil
		},
	}
}

func segmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "segments",
		Short: "List segments recorded in the local cache inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Segments []struct {
					ID         string `json:"id"`
					DataSource string `json:"data_source"`
					Size       int64  `json:"size"`
				} `json:"segments"`
				Count     int   `json:"count"`
				TotalSize int64 `json:"total_size"`
			}
			if err := getJSON("/segments", &resp); err != nil {
				return err
			}

			for i, seg := range resp.Segments {
				fmt.Printf("%d) %s - %s - %d bytes\n", i+1, seg.ID, seg.DataSource, seg.Size)
			}
			fmt.Printf("Total: %d segments, %d bytes\n", resp.Count, resp.TotalSize)
			return nil
		},
	}
}

func membersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List cluster members",
		RunE: func(cmd *cobra.Command, args []string) error {
			var members []struct {
				ID           string `json:"id"`
				Address      string `json:"address"`
				Role         string `json:"role"`
				Discoverable bool   `json:"discoverable"`
				State        string `json:"state"`
			}
			if err := getJSON("/cluster/members", &members); err != nil {
				return err
			}

			for i, m := range members {
				discoverable := ""
				if m.Discoverable {
					discoverable = " (discoverable)"
				}
				fmt.Printf("%d) %s - %s - %s - %s%s\n", i+1, m.ID, m.Address, m.Role, m.State, discoverable)
			}
			return nil
		},
	}
}
