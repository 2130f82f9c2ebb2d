package main

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"streamview/internal/app/domain/wire"
)

// frames читает строки протокола из stdin и печатает разобранные кадры.
func main() {
	var showTags bool

	cmd := &cobra.Command{
		Use:   "frames",
		Short: "Parse raw chat protocol lines from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.InOrStdin(), cmd.OutOrStdout(), showTags)
		},
	}
	cmd.Flags().BoolVar(&showTags, "tags", true, "print parsed tag values")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, showTags bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		frame, err := wire.Parse(line)
		if err != nil {
			fmt.Fprintf(out, "ERR   %v: %q\n", err, line)
			continue
		}

		fmt.Fprintf(out, "%-6s %-12s #%-16s %-16s %q\n", kindLabel(frame.Kind()), frame.Command, frame.Channel, frame.Source, frame.Text)
		if showTags {
			for _, key := range slices.Sorted(maps.Keys(frame.Tags)) {
				fmt.Fprintf(out, "       %s = %s\n", key, frame.Tags.Text(key))
			}
		}
	}
	return scanner.Err()
}

func kindLabel(k wire.Kind) string {
	s := k.String()
	if len(s) > 6 {
		return s[:6]
	}
	return s
}
