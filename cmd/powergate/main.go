// powergate — authorization and verification gate for high-risk
// device operations.
package main

import "github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/cli"

func main() {
	cli.Execute()
}
