package main

import (
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/internal/demo"
)

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the demo scene tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		frames, _ := cmd.Flags().GetInt("frames")
		d, err := demo.New(cfg, canopy.NopLogger(), nil)
		if err != nil {
			return err
		}
		for range frames {
			if err := d.SM.Tick(d.SM.PhysicsStep()); err != nil {
				return err
			}
		}

		out := termenv.NewOutput(cmd.OutOrStdout())
		canopy.WalkDepth(d.Root, func(n *canopy.Node, depth int) {
			out.WriteString(strings.Repeat("  ", depth) + styleNode(out, n) + "\n")
		})
		return nil
	},
}

// styleNode colors the node name by capability and dims the rest of its
// description.
func styleNode(out *termenv.Output, n *canopy.Node) string {
	desc := canopy.DescribeNode(n)
	rest := strings.TrimPrefix(desc, n.Name())
	name := out.String(n.Name()).Bold()
	switch {
	case n.HasKind(canopy.KindBody):
		name = name.Foreground(out.Color("#f09a3e"))
	case n.HasKind(canopy.KindShape):
		name = name.Foreground(out.Color("#555b6e"))
	case n.HasKind(canopy.KindAnimated):
		name = name.Foreground(out.Color("#818cf8"))
	}
	return name.String() + out.String(rest).Faint().String()
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Int("frames", 0, "Ticks to run before printing")
}
