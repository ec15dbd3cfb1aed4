package runstore

import (
	"fmt"

	"github.com/dmarten/relval/schema"
)

// PrintHistoryStatus prints run-history status information.
func PrintHistoryStatus(status schema.HistoryStatus) {
	fmt.Printf("History Backend: %s\n", status.Backend)
	fmt.Printf("Location: %s\n", status.Location)
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.LastRunAt != nil {
		fmt.Printf("Last Run: %s\n", status.LastRunAt.Format("2006-01-02 15:04:05"))
	}
	if status.TotalBytes > 0 {
		fmt.Printf("Database Size: %d bytes\n", status.TotalBytes)
	}
}
