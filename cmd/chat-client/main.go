// Command chat-client is a sample terminal client for the chatbot API. It
// streams one question over the SSE endpoint and prints progress as it
// arrives; with --show-schemas it renders the warehouse schema instead.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	flag "github.com/spf13/pflag"
)

func main() {
	addrFlag := flag.String("addr", "http://localhost:8000", "chatbot API base URL")
	questionFlag := flag.String("question", "Give actual feed rate of machine with code VMC153", "question to ask")
	showSchemasFlag := flag.Bool("show-schemas", false, "print the warehouse schema and exit")
	flag.Parse()

	var err error
	if *showSchemasFlag {
		err = showSchemas(*addrFlag)
	} else {
		err = streamChat(*addrFlag, *questionFlag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
}

func streamChat(addr, question string) error {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return err
	}

	resp, err := http.Post(addr+"/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	fmt.Printf("Question: %s\n\n", question)

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var ev event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			return fmt.Errorf("bad event frame: %w", err)
		}

		switch ev.Type {
		case "status":
			fmt.Printf("Status: %s\n", ev.Message)
		case "explanation":
			fmt.Printf("Answer: %s\n", ev.Text)
		case "error":
			fmt.Printf("Error: %s\n", ev.Message)
		case "complete":
			fmt.Println("Complete!")
		}
	}
	return scanner.Err()
}

type column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

func showSchemas(addr string) error {
	resp, err := http.Get(addr + "/schemas")
	if err != nil {
		return fmt.Errorf("failed to reach API: %w", err)
	}
	defer resp.Body.Close()

	var schemas map[string]map[string][]column
	if err := json.NewDecoder(resp.Body).Decode(&schemas); err != nil {
		return fmt.Errorf("failed to decode schemas: %w", err)
	}

	datasets := make([]string, 0, len(schemas))
	for d := range schemas {
		datasets = append(datasets, d)
	}
	sort.Strings(datasets)

	for _, dataset := range datasets {
		tables := make([]string, 0, len(schemas[dataset]))
		for t := range schemas[dataset] {
			tables = append(tables, t)
		}
		sort.Strings(tables)

		for _, name := range tables {
			fmt.Printf("\n%s.%s\n", dataset, name)
			table := tablewriter.NewWriter(os.Stdout)
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"Column", "Type", "Mode", "Description"})
			for _, col := range schemas[dataset][name] {
				table.Append([]string{col.Name, col.Type, col.Mode, col.Description})
			}
			table.Render()
		}
	}
	return nil
}
