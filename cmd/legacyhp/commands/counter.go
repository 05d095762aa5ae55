package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	bbs "github.com/tmaru-eng/legacy-homepage"
)

var counterPeek bool

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Bump and show the visit counter",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		var n int64
		if counterPeek {
			n, err = svc.VisitCount(cmd.Context())
		} else {
			n, err = svc.IncrementVisits(cmd.Context())
		}
		if err != nil {
			return err
		}
		fmt.Printf("あなたは %d 人目の訪問者です\n", n)
		if bbs.IsKiriban(n) {
			fmt.Println("☆キリ番ゲット！おめでとう！☆")
		}
		return nil
	},
}

func init() {
	counterCmd.Flags().BoolVar(&counterPeek, "peek", false, "Read the count without incrementing")
	rootCmd.AddCommand(counterCmd)
}
