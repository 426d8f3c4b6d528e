package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List attendance records",
	Long: `List stored attendance records, newest first.

Examples:
  attendance-kiosk records --identity Yoga --since 2024-03-01
  attendance-kiosk records summary --since 2024-03-01 --until 2024-04-01`,
	RunE: runRecords,
}

var recordsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count attendance records per person",
	RunE:  runRecordsSummary,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsSummaryCmd)

	for _, c := range []*cobra.Command{recordsCmd, recordsSummaryCmd} {
		c.Flags().String("identity", "", "Only records for this person")
		c.Flags().String("since", "", "Only records at or after this time (YYYY-MM-DD or RFC 3339)")
		c.Flags().String("until", "", "Only records before this time (YYYY-MM-DD or RFC 3339)")
		c.Flags().Bool("json", false, "Output as JSON")
	}
	recordsCmd.Flags().Int("limit", constants.DefaultRecordLimit, "Maximum number of records")
	recordsCmd.Flags().Int("offset", 0, "Number of records to skip")
}

// recordsFilter builds the filter shared by records and records summary.
func recordsFilter(cmd *cobra.Command) (database.AttendanceFilter, error) {
	filter := database.AttendanceFilter{Identity: mustGetString(cmd, "identity")}

	var err error
	if filter.Since, err = database.ParseTime(mustGetString(cmd, "since")); err != nil {
		return filter, fmt.Errorf("invalid --since: %w", err)
	}
	if filter.Until, err = database.ParseTime(mustGetString(cmd, "until")); err != nil {
		return filter, fmt.Errorf("invalid --until: %w", err)
	}
	return filter, nil
}

func openRecordsReader(ctx context.Context) (database.AttendanceReader, func(), error) {
	closeStore, err := openStore(config.Load())
	if err != nil {
		return nil, nil, err
	}
	reader, err := database.GetAttendanceReader(ctx)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return reader, closeStore, nil
}

func runRecords(cmd *cobra.Command, args []string) error {
	filter, err := recordsFilter(cmd)
	if err != nil {
		return err
	}
	filter.Limit = mustGetInt(cmd, "limit")
	filter.Offset = mustGetInt(cmd, "offset")

	ctx := context.Background()
	reader, closeStore, err := openRecordsReader(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := reader.ListAttendance(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No attendance records found")
		return nil
	}
	fmt.Printf("%-24s  %-20s  %-10s  %s\n", "TIMESTAMP", "IDENTITY", "CONFIDENCE", "CLASSIFIER")
	for i := range records {
		fmt.Printf("%-24s  %-20s  %-10.3f  %s\n",
			records[i].ISOTimestamp(), records[i].Identity, records[i].Confidence, records[i].Classifier)
	}
	return nil
}

func runRecordsSummary(cmd *cobra.Command, args []string) error {
	filter, err := recordsFilter(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	reader, closeStore, err := openRecordsReader(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	counts, err := reader.CountByIdentity(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(counts)
	}

	names := make([]string, 0, len(counts))
	total := 0
	for name, n := range counts {
		names = append(names, name)
		total += n
	}
	slices.Sort(names)

	for _, name := range names {
		fmt.Printf("%-20s %d\n", name, counts[name])
	}
	fmt.Printf("%-20s %d\n", "Total", total)
	return nil
}
