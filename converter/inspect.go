package main

import (
	"fmt"

	"github.com/spf13/cobra"

	converter "github.com/pixel-tb/pxconverter/pkg"
)

func NewInspectCommand() *cobra.Command {
	var events int
	cmd := &cobra.Command{
		Use:   "inspect <clustered file>",
		Short: "Print the clusters stored in a converted file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			records, err := converter.ReadClusterFile(args[0])
			if err != nil {
				return err
			}
			nClusters := 0
			for i, record := range records {
				nClusters += int(record.NCluster)
				if i >= events {
					continue
				}
				fmt.Printf("Event %d: %d hits, %d clusters\n", record.EventID, len(record.Charges), record.NCluster)
				for j := range record.ClusterSize {
					fmt.Printf("\tsize %d, x %.2f, y %.2f, charge %.1f vcal\n",
						record.ClusterSize[j], record.ClusterX[j], record.ClusterY[j], record.ClusterCharge[j])
				}
			}
			fmt.Printf("Total: %d events, %d clusters\n", len(records), nClusters)
			return nil
		},
	}
	cmd.Flags().IntVarP(&events, "events", "n", 10, "Number of events to print")
	return cmd
}
