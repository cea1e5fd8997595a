package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/risk-engine/internal/graph"
)

var graphImportPath string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage the site and supplier graph",
}

var graphImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a graph YAML file into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		g, err := graph.LoadFile(graphImportPath)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveGraph(ctx, g.Sites, g.Suppliers, g.Relationships); err != nil {
			return err
		}

		zap.L().Info("graph imported",
			zap.Int("sites", len(g.Sites)),
			zap.Int("suppliers", len(g.Suppliers)),
			zap.Int("relationships", len(g.Relationships)),
			zap.String("file", graphImportPath),
		)
		return nil
	},
}

func init() {
	graphImportCmd.Flags().StringVar(&graphImportPath, "file", "", "path to graph YAML file (required)")
	_ = graphImportCmd.MarkFlagRequired("file")
	graphCmd.AddCommand(graphImportCmd)
	rootCmd.AddCommand(graphCmd)
}
