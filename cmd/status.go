package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/zakupwatch/lotscan/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many lots the store holds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return eris.Wrap(err, "status: open store")
		}
		defer func() { _ = st.Close() }()

		n, err := st.Count(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "status: count")
		}
		fmt.Printf("%d lots in %s store at %s\n", n, cfg.Store.Driver, cfg.Store.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
