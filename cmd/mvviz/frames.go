package main

import (
	"encoding/json"
	"fmt"

	"github.com/fiapx/fiapx-motion-service/internal/domain/entity"
	"github.com/fiapx/fiapx-motion-service/internal/usecase"
	"github.com/spf13/cobra"
)

var framesJSON bool

var framesCmd = &cobra.Command{
	Use:   "frames [video]",
	Short: "List the frames that carry motion vectors",
	Long: `Lists every frame that has at least one motion vector, in the order the
extractor reported them. The index column is what render --frame expects;
the frame column is the decoder's frame number.`,
	Args: cobra.ExactArgs(1),
	RunE: runFrames,
}

type frameRow struct {
	Index       int `json:"index"`
	FrameNumber int `json:"frame_number"`
	Vectors     int `json:"vectors"`
}

func init() {
	framesCmd.Flags().BoolVar(&framesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(framesCmd)
}

func runFrames(cmd *cobra.Command, args []string) error {
	identity, err := entity.LocalVideoIdentity(args[0])
	if err != nil {
		return err
	}

	col, _, err := motionSvc.Collection(cmd.Context(), usecase.VideoSource{Path: identity.Key, Identity: identity})
	if err != nil {
		return fmt.Errorf("extract motion vectors: %w", err)
	}

	rows := make([]frameRow, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		block, _ := col.At(i)
		rows = append(rows, frameRow{Index: i, FrameNumber: block.FrameNumber, Vectors: len(block.Vectors)})
	}

	if framesJSON {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal frames: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%6s %8s %8s\n", "INDEX", "FRAME", "VECTORS")
	for _, r := range rows {
		cmd.Printf("%6d %8d %8d\n", r.Index, r.FrameNumber, r.Vectors)
	}
	cmd.Printf("%d frames, %d vectors\n", col.Len(), col.VectorCount())
	return nil
}
