package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/authority"
)

var routesPath string

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.AddCommand(routesListCmd)
	routesCmd.PersistentFlags().StringVar(&routesPath, "routes", "", "Path to routes YAML (built-in table when omitted)")
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Inspect the route table",
}

var routesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the effective route table in priority order",
	RunE: func(cmd *cobra.Command, args []string) error {
		routes, hash, err := authority.LoadRoutes(routesPath)
		if err != nil {
			return err
		}

		if hash == "" {
			fmt.Println("source: built-in defaults")
		} else {
			fmt.Printf("source: %s (%s)\n", routesPath, hash)
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATTERN\tDOMAIN\tCATEGORY\tROLES\tDEVICE\tCONFIRM\tCONDITIONS")
		for _, route := range routes {
			roles := make([]string, 0, len(route.Roles))
			for _, role := range route.Roles {
				roles = append(roles, string(role))
			}
			conds := make([]string, 0, len(route.Conditions))
			for _, c := range route.Conditions {
				conds = append(conds, c.String())
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
				route.Pattern.String(),
				route.Domain,
				route.Category,
				strings.Join(roles, ","),
				route.RequiresDevice,
				route.RequiresConfirmation,
				strings.Join(conds, " "),
			)
		}
		return w.Flush()
	},
}
