package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	containersTimeout = 30 * time.Second
	shortIDLength     = 12
)

func newContainersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var quiet bool

	cmd := &cobra.Command{
		Use:     "containers",
		Aliases: []string{"ps"},
		Short:   "List containers known to the Docker daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			reqCtx, cancel := context.WithTimeout(cmd.Context(), containersTimeout)
			defer cancel()

			client := ctx.client()
			body, err := client.Containers(reqCtx)
			if err != nil {
				return wrapDialError(err, client.Addr())
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				_, err := out.Write(pretty.PrettyOptions(body, &pretty.Options{Width: 1, Indent: "  "}))
				return err
			}

			rows := containerRows(body)
			if quiet {
				for _, row := range rows {
					fmt.Fprintln(out, row[0])
				}
				return nil
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No containers")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Image", "State", "Status", "Names"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the daemon's JSON listing")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print container IDs only")
	return cmd
}

// containerRows extracts display columns from a /containers/json array.
func containerRows(body []byte) [][]string {
	caser := cases.Title(language.English)
	var rows [][]string
	gjson.ParseBytes(body).ForEach(func(_, container gjson.Result) bool {
		var names []string
		container.Get("Names").ForEach(func(_, name gjson.Result) bool {
			names = append(names, strings.TrimPrefix(name.String(), "/"))
			return true
		})
		rows = append(rows, []string{
			shortID(container.Get("Id").String()),
			container.Get("Image").String(),
			caser.String(container.Get("State").String()),
			container.Get("Status").String(),
			strings.Join(names, ", "),
		})
		return true
	})
	return rows
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}
