package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brunobiangulo/kgnorm"
	"github.com/brunobiangulo/kgnorm/graph"
	"github.com/brunobiangulo/kgnorm/parser"
)

func newIngestCmd(g *globalOptions) *cobra.Command {
	var (
		id, name, format string
		force            bool
		meta             map[string]string
	)
	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Normalize an extract and store it",
		Long: `Normalize an extract and store it under a document id, replacing any
previous version. Unchanged extracts are skipped unless --force is set.
Without --id a random UUID is assigned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			raw, err := readExtract(cmd, path, format)
			if err != nil {
				return err
			}
			if id == "" {
				id = uuid.NewString()
			}
			if name == "" && path != "-" {
				name = filepath.Base(path)
			}
			if format == "" {
				format = "json"
				if path != "-" {
					format = parser.FormatFromPath(path)
				}
			}

			opts := []kgnorm.IngestOption{
				kgnorm.WithName(name),
				kgnorm.WithFormat(format),
				kgnorm.WithSource("cli"),
				kgnorm.WithMetadata(meta),
			}
			if force {
				opts = append(opts, kgnorm.WithForce())
			}

			return g.withEngine(func(e kgnorm.Engine) error {
				res, err := e.Ingest(commandContext(cmd), id, raw, opts...)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&id, "id", "", "document id (default: random UUID)")
	f.StringVar(&name, "name", "", "document name (default: file name)")
	f.StringVarP(&format, "format", "f", "", "input format (default: from file extension)")
	f.BoolVar(&force, "force", false, "re-ingest even if the extract is unchanged")
	f.StringToStringVar(&meta, "meta", nil, "metadata key=value pairs")
	return cmd
}

func newDocumentsCmd(g *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"ls"},
		Short:   "List stored documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withEngine(func(e kgnorm.Engine) error {
				docs, err := e.ListDocuments(commandContext(cmd))
				if err != nil {
					return err
				}
				if asJSON {
					if docs == nil {
						docs = []kgnorm.Document{}
					}
					return writeJSON(cmd.OutOrStdout(), docs)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tNODES\tEDGES\tALIASES\tUPDATED")
				for _, d := range docs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
						d.ID, d.Name, d.Format, d.NodeCount, d.EdgeCount, d.Stats.Aliases, d.UpdatedAt)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newShowCmd(g *globalOptions) *cobra.Command {
	var (
		focus []string
		depth int
	)
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print a stored graph as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withEngine(func(e kgnorm.Engine) error {
				out, err := e.Load(commandContext(cmd), args[0])
				if err != nil {
					return err
				}
				if len(focus) > 0 {
					out = graph.Subgraph(out, focus, depth)
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringSliceVar(&focus, "focus", nil, "restrict output to the neighbourhood of these entities")
	cmd.Flags().IntVar(&depth, "depth", 1, "neighbourhood depth for --focus")
	return cmd
}

func newDeleteCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withEngine(func(e kgnorm.Engine) error {
				for _, id := range args {
					if err := e.Delete(commandContext(cmd), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				}
				return nil
			})
		},
	}
}

func newExportCmd(g *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a stored graph as an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if output == "" {
				output = id + ".xlsx"
			}
			return g.withEngine(func(e kgnorm.Engine) error {
				var buf bytes.Buffer
				if err := e.Export(commandContext(cmd), id, &buf); err != nil {
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("writing workbook: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: ID.xlsx)")
	return cmd
}

func newSimilarCmd(g *globalOptions) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "similar NAME",
		Short: "Find stored entities with names close to NAME",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return g.withEngine(func(e kgnorm.Engine) error {
				hits, err := e.SimilarNodes(commandContext(cmd), name, k)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SCORE\tNAME\tTYPE\tDEGREE\tDOCUMENT")
				for _, h := range hits {
					fmt.Fprintf(tw, "%.3f\t%s\t%s\t%d\t%s\n", h.Score, h.Name, h.Type, h.Degree, h.DocumentID)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&k, "limit", "k", 10, "number of results")
	return cmd
}
