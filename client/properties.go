package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/eventpublisher/event"
	propertyEventPublisher "go-firestore-estate/internal/eventpublisher/property"
	"go-firestore-estate/internal/listing"
	"go-firestore-estate/internal/model"
	"go-firestore-estate/internal/search"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	exportFormat string
	exportOutput string

	watchQuery    string
	watchType     string
	watchCategory string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create the properties listed in a JSON or YAML file",
	Long: `Create every property listed in the file. The format follows the file extension
(.json, .yaml or .yml). Properties whose id already exists are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every valid property as JSON or YAML",
	RunE:  runExport,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete properties by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := current.properties.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", id)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the filtered live property list on every change",
	RunE:  runWatch,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	watchCmd.Flags().StringVarP(&watchQuery, "query", "q", "", "search text")
	watchCmd.Flags().StringVarP(&watchType, "type", "t", search.AllTypes, "property type")
	watchCmd.Flags().StringVarP(&watchCategory, "category", "c", "", "category page the type is matched for")
}

// decodeProperties reads a list of properties. YAML goes through the JSON field names so both
// formats share the model's tags.
func decodeProperties(r io.Reader, format string) ([]model.Property, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
	case "yaml", "yml":
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	var properties []model.Property
	if err := json.Unmarshal(data, &properties); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	return properties, nil
}

func encodeProperties(w io.Writer, properties []model.Property, format string) error {
	data, err := json.MarshalIndent(properties, "", "    ")
	if err != nil {
		return err
	}

	switch format {
	case "json":
	case "yaml", "yml":
		var raw interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if data, err = yaml.Marshal(raw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	_, err = w.Write(data)
	return err
}

func runImport(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(args[0])), ".")
	properties, err := decodeProperties(file, format)
	if err != nil {
		return err
	}

	created := 0
	for _, p := range properties {
		id, err := current.properties.Create(cmd.Context(), p)
		if errors.Is(err, ierr.ErrAlreadyExists) {
			fmt.Printf("skipped %s: already exists\n", p.Id)
			continue
		}
		if err != nil {
			return err
		}
		created++
		fmt.Printf("created %s\n", id)
	}

	fmt.Printf("%d of %d properties created\n", created, len(properties))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	properties, err := current.properties.List(cmd.Context())
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOutput != "" {
		file, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	return encodeProperties(w, properties, strings.ToLower(exportFormat))
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := search.SanitizeSearchInput(watchQuery)

	view := listing.New("watch", propertyEventPublisher.PropertySourceFactory(current.properties).OnAll())
	events := make(chan event.Event, 1)
	view.Subscribe(events)
	defer view.Close()

	if err := view.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}

			s := e.Message.(listing.Snapshot)
			if s.Loading {
				continue
			}
			if s.Err != nil {
				return fmt.Errorf("%s (%s)", s.ErrMessage, s.Code)
			}

			var matched []model.Property
			if watchCategory == "" {
				matched = search.FilterProperties(s.Properties, query, "", watchType)
			} else {
				matched = search.FilterByCategory(search.SearchProperties(s.Properties, query), watchCategory)
				matched = search.FilterByCategoryType(matched, watchCategory, watchType)
			}
			printListing(s, matched)
		}
	}
}

func printListing(s listing.Snapshot, matched []model.Property) {
	fmt.Printf("--- snapshot %d: %d of %d properties", s.Seq, len(matched), len(s.Properties))
	if len(s.Rejected) > 0 {
		fmt.Printf(", %d rejected", len(s.Rejected))
	}
	fmt.Println()

	for _, p := range matched {
		fmt.Printf("%-24s %-32s %-12s %s\n", p.Id, p.Title, p.Price, p.Location)
	}
}
