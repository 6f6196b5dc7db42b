package main

import (
	"fmt"
	"path/filepath"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/fiapx/fiapx-motion-service/internal/usecase"
	"github.com/spf13/cobra"
)

var (
	renderFrames    []int
	renderNormalize bool
	renderOut       string
)

var renderCmd = &cobra.Command{
	Use:   "render [video]",
	Short: "Render the motion vector field of one or more frames",
	Long: `Renders the vector field of each requested collection index together with
the decoder's overlay of the same frame. Every index gets its own directory
under --out holding field.png, reference_NN.png and composite.png.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntSliceVarP(&renderFrames, "frame", "f", []int{0}, "collection index to render (repeatable)")
	renderCmd.Flags().BoolVar(&renderNormalize, "normalize", false, "draw unit-length arrows coloured by magnitude")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "mvviz-out", "output directory")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	identity, err := entity.LocalVideoIdentity(args[0])
	if err != nil {
		return err
	}
	src := usecase.VideoSource{Path: identity.Key, Identity: identity}

	for _, idx := range renderFrames {
		res, err := motionSvc.Visualize(cmd.Context(), usecase.VisualizeRequest{
			Source:    src,
			Index:     idx,
			Normalize: renderNormalize,
			OutputDir: filepath.Join(renderOut, fmt.Sprintf("index_%04d", idx)),
		})
		if err != nil {
			return fmt.Errorf("frame index %d: %w", idx, err)
		}
		cmd.Printf("index %d -> frame %d (%d vectors): %s\n",
			res.FrameIndex, res.FrameNumber, res.VectorCount, res.Visualization.CompositePath)
	}
	return nil
}
