package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/bjdean/knackpy"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("Knack API Client Demo")
	fmt.Println("=====================")
	fmt.Println()

	// Credentials from .env or the environment
	_ = godotenv.Load()

	appID := os.Getenv("KNACK_APP_ID")
	apiKey := os.Getenv("KNACK_API_KEY")

	if appID == "" {
		fmt.Println("Error: Knack application ID not found in environment")
		fmt.Println()
		fmt.Println("Please set the following environment variables (or a .env file):")
		fmt.Println("  export KNACK_APP_ID=your-application-id")
		fmt.Println("  export KNACK_API_KEY=your-api-key   # optional, public views only without it")
		os.Exit(1)
	}

	fmt.Printf("Application ID: %s\n", appID)
	if apiKey == "" {
		fmt.Println("No API key set: only public views will be accessible")
	}
	fmt.Println()

	config := knackpy.DefaultConfig()
	config.AppID = appID
	config.APIKey = apiKey

	ctx := context.Background()

	fmt.Println("Fetching app metadata...")
	app, err := knackpy.New(ctx, config)
	if err != nil {
		fmt.Printf("Error creating client: %v\n", err)
		os.Exit(1)
	}

	info := app.Info()
	fmt.Printf("\nConnected to %s\n", app)
	fmt.Printf("Objects: %d | Scenes: %d | Records: %d | Assets: %s\n",
		info.Objects, info.Scenes, info.Records, info.Size)
	fmt.Printf("Timezone: %s\n", app.Timezone())

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\n=== Main Menu ===")
		fmt.Println("1. List containers")
		fmt.Println("2. Fetch records")
		fmt.Println("3. Export records to CSV")
		fmt.Println("4. Download attachments")
		fmt.Println("q. Quit")
		fmt.Print("\nSelect option: ")

		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		switch choice {
		case "1":
			listContainers(app)
		case "2":
			fetchRecords(ctx, app, reader)
		case "3":
			exportCSV(ctx, app, reader)
		case "4":
			downloadAttachments(ctx, app, reader)
		case "q", "Q":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Invalid option")
		}
	}
}

func listContainers(app *knackpy.App) {
	fmt.Println("\n=== Containers ===")
	fmt.Println("----------------------------------------")

	for _, c := range app.Containers() {
		if c.ObjKey != "" {
			fmt.Printf("object  %-12s %s\n", c.ObjKey, c.Name)
		} else {
			fmt.Printf("view    %-12s %s (scene %s)\n", c.ViewKey, c.Name, c.SceneKey)
		}
	}
}

func readIdentifier(reader *bufio.Reader) string {
	fmt.Print("Enter container identifier (object/view key or name): ")
	identifier, _ := reader.ReadString('\n')
	return strings.TrimSpace(identifier)
}

func fetchRecords(ctx context.Context, app *knackpy.App, reader *bufio.Reader) {
	fmt.Println("\n=== Fetch Records ===")
	identifier := readIdentifier(reader)

	fmt.Print("Refresh from API? (y/N): ")
	refresh, _ := reader.ReadString('\n')

	fmt.Printf("\nFetching records from %q...\n", identifier)

	records, err := app.Records(ctx, identifier, &knackpy.RecordOptions{
		Refresh:     strings.EqualFold(strings.TrimSpace(refresh), "y"),
		RecordLimit: 25,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("\nFetched %d records (limit 25):\n", len(records))
	fmt.Println("----------------------------------------")

	limit := len(records)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		fmt.Printf("\nRecord %s:\n", records[i].ID)
		for _, v := range records[i].Values {
			fmt.Printf("  %-20s %s\n", v.Name+":", v.Formatted)
		}
	}
	if len(records) > 5 {
		fmt.Printf("\n... and %d more records\n", len(records)-5)
	}
}

func exportCSV(ctx context.Context, app *knackpy.App, reader *bufio.Reader) {
	fmt.Println("\n=== Export to CSV ===")
	identifier := readIdentifier(reader)

	fname, err := app.ToCSV(ctx, identifier, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Wrote %s\n", fname)
}

func downloadAttachments(ctx context.Context, app *knackpy.App, reader *bufio.Reader) {
	fmt.Println("\n=== Download Attachments ===")
	identifier := readIdentifier(reader)

	fmt.Print("Enter file/image field (key or name): ")
	field, _ := reader.ReadString('\n')
	field = strings.TrimSpace(field)

	fmt.Print("Label field keys (comma-separated, optional): ")
	labels, _ := reader.ReadString('\n')
	labels = strings.TrimSpace(labels)

	var labelKeys []string
	if labels != "" {
		for _, key := range strings.Split(labels, ",") {
			labelKeys = append(labelKeys, strings.TrimSpace(key))
		}
	}

	fmt.Printf("\nDownloading %q attachments from %q...\n\n", field, identifier)

	startTime := time.Now()
	var lastUpdate time.Time

	count, err := app.Download(ctx, identifier, field, &knackpy.DownloadOptions{
		LabelKeys: labelKeys,
		Progress: func(bytesWritten, totalBytes int64) {
			now := time.Now()
			// Update every 500ms
			if now.Sub(lastUpdate) > 500*time.Millisecond {
				if totalBytes > 0 {
					percent := float64(bytesWritten) * 100 / float64(totalBytes)
					fmt.Printf("\rCurrent file: %.1f%% | %.2f MB     ",
						percent, float64(bytesWritten)/1024/1024)
				} else {
					fmt.Printf("\rCurrent file: %.2f MB     ", float64(bytesWritten)/1024/1024)
				}
				lastUpdate = now
			}
		},
	})

	fmt.Println()

	if err != nil {
		fmt.Printf("Error after %d files: %v\n", count, err)
		return
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nSuccess! Downloaded %d files to _downloads in %.1f seconds\n", count, elapsed.Seconds())
}
