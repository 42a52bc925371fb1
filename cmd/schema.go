package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var schemaTargets = map[string]any{
	"envelope":    &protocol.Envelope{},
	"media-state": &protocol.MediaState{},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringP("type", "t", "media-state", "Schema to print: envelope or media-state")
	lo.Must0(schemaCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Keys(schemaTargets), cobra.ShellCompDirectiveNoFileComp
	}))
	schemaCmd.SetOut(os.Stdout)
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the watch websocket frames",
	Run: func(cmd *cobra.Command, args []string) {
		name := lo.Must(cmd.Flags().GetString("type"))
		target, ok := schemaTargets[name]
		if !ok {
			handleErr(fmt.Errorf("unknown schema %q, available: envelope, media-state", name))
		}

		reflector := &jsonschema.Reflector{
			DoNotReference: true,
		}
		schema := reflector.Reflect(target)

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(schema))
	},
}
