package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Manage the daemon's location",
}

var locationSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Push a location fix to the daemon",
	RunE:  runLocationSet,
}

var (
	pushLat float64
	pushLng float64
)

func init() {
	locationCmd.AddCommand(locationSetCmd)

	locationSetCmd.Flags().Float64Var(&pushLat, "lat", 0, "Latitude (required)")
	locationSetCmd.Flags().Float64Var(&pushLng, "lng", 0, "Longitude (required)")
	locationSetCmd.MarkFlagRequired("lat")
	locationSetCmd.MarkFlagRequired("lng")
}

func runLocationSet(cmd *cobra.Command, args []string) error {
	body, err := apiPost("/location", map[string]float64{"lat": pushLat, "lng": pushLng})
	if err != nil {
		return err
	}

	var result struct {
		Accepted bool `json:"accepted"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}

	if result.Accepted {
		fmt.Printf("✓ Location updated to (%.4f, %.4f)\n", pushLat, pushLng)
	} else {
		fmt.Println("Location unchanged (within the distance filter of the previous fix)")
	}
	return nil
}
